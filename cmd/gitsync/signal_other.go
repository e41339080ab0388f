//go:build !unix

package gitsync

import "os"

// reraise exits with the conventional interrupted status; non-unix
// platforms cannot send a signal to themselves.
func reraise(os.Signal) {
	exitFunc(130)
}
