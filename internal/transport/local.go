package transport

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/skaphos/gitsync/internal/gitx"
)

// Local runs "remote" commands through the local shell and clones with
// plain git.
type Local struct {
	Git   gitx.Runner
	Shell string
	Log   logrus.FieldLogger
	exec  Exec
}

// NewLocal returns a Local provider using git and /bin/sh.
func NewLocal(git gitx.Runner, log logrus.FieldLogger) *Local {
	if git == nil {
		git = &gitx.GitRunner{Log: log}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Local{Git: git, Shell: "sh", Log: log, exec: runCommand}
}

// RunRemote runs command with the local shell; host is ignored.
func (l *Local) RunRemote(ctx context.Context, host, command string) (int, string, error) {
	l.Log.WithFields(logrus.Fields{"host": host, "command": command}).Debug("local shell")
	res, err := l.exec(ctx, "", l.Shell, "-c", command)
	if err != nil {
		return -1, res.Stdout, err
	}
	return res.Exit, res.Stdout, nil
}

// Clone clones with plain git regardless of kind.
func (l *Local) Clone(ctx context.Context, _ Kind, source, dest string) error {
	return gitx.Clone(ctx, l.Git, "", source, dest)
}
