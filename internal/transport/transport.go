// Package transport runs commands on remote hosts and clones repositories
// over local or ssh transports.
package transport

import (
	"context"
	"strings"
)

// Kind selects how a clone source is reached.
type Kind string

const (
	// KindSSH reaches the source over ssh; writable.
	KindSSH Kind = "ssh"
	// KindHTTPS reaches the source over https; typically read-only.
	KindHTTPS Kind = "https"
	// KindLocal clones from a filesystem path.
	KindLocal Kind = "local"
)

// Provider is the capability the planner needs from a transport.
type Provider interface {
	// RunRemote runs command through the host's shell. err is non-nil only
	// when no exit status is available (the command could not start or was
	// interrupted); a non-zero exit is reported through exit.
	RunRemote(ctx context.Context, host, command string) (exit int, stdout string, err error)
	// Clone clones source into dest.
	Clone(ctx context.Context, kind Kind, source, dest string) error
}

// SourceHost extracts the host from an ssh clone source such as
// "git@github.com:a/b.git", "ssh://git@host:22/a/b" or "host:/srv/a".
func SourceHost(source string) string {
	if rest, ok := strings.CutPrefix(source, "ssh://"); ok {
		hostPart, _, _ := strings.Cut(rest, "/")
		if i := strings.LastIndex(hostPart, "@"); i >= 0 {
			hostPart = hostPart[i+1:]
		}
		host, _, _ := strings.Cut(hostPart, ":")
		return host
	}
	if strings.Contains(source, "://") {
		return ""
	}
	hostPart, _, ok := strings.Cut(source, ":")
	if !ok || strings.Contains(hostPart, "/") {
		return ""
	}
	if i := strings.LastIndex(hostPart, "@"); i >= 0 {
		hostPart = hostPart[i+1:]
	}
	return hostPart
}

// ShellQuote quotes s for a POSIX shell.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`!*?[]{}()<>|&;#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
