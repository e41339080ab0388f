//go:build unix

package gitsync

import (
	"os"
	"os/signal"
	"syscall"
	"time"
)

// reraise restores the default disposition of sig and sends it to this
// process. The exit is a fallback for a signal that does not terminate.
func reraise(sig os.Signal) {
	s, ok := sig.(syscall.Signal)
	if !ok {
		exitFunc(130)
		return
	}
	signal.Reset(s)
	_ = syscall.Kill(os.Getpid(), s)
	time.Sleep(100 * time.Millisecond)
	exitFunc(128 + int(s))
}
