package transport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/shlex"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/skaphos/gitsync/internal/gitx"
)

// SSH relays commands and clones over ssh. Hosts allowed a multiplexed
// session get one shared ControlMaster connection, opened on first use and
// kept until Close.
type SSH struct {
	Git gitx.Runner
	Log logrus.FieldLogger
	// Notice receives informational messages, such as a host falling back
	// to direct connections. Optional.
	Notice func(string)

	command    []string
	controlDir string
	masters    map[string]bool
	sessions   map[string]string
	noticed    map[string]bool
	exec       Exec
}

// NewSSH parses sshCommand shell-style. An empty command means "ssh".
func NewSSH(sshCommand string, git gitx.Runner, log logrus.FieldLogger) (*SSH, error) {
	words, err := shlex.Split(sshCommand)
	if err != nil {
		return nil, fmt.Errorf("parse ssh command %q: %w", sshCommand, err)
	}
	if len(words) == 0 {
		words = []string{"ssh"}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if git == nil {
		git = &gitx.GitRunner{Log: log}
	}
	return &SSH{
		Git:      git,
		Log:      log,
		command:  words,
		masters:  map[string]bool{},
		sessions: map[string]string{},
		noticed:  map[string]bool{},
		exec:     runCommand,
	}, nil
}

// AllowMaster permits shared sessions for the given hosts.
func (s *SSH) AllowMaster(hosts ...string) {
	for _, h := range hosts {
		if h = strings.TrimSpace(h); h != "" {
			s.masters[h] = true
		}
	}
}

// Sessions returns the hosts with an open shared session, sorted.
func (s *SSH) Sessions() []string {
	hosts := make([]string, 0, len(s.sessions))
	for h := range s.sessions {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

// RunRemote runs command on host in batch mode.
func (s *SSH) RunRemote(ctx context.Context, host, command string) (int, string, error) {
	opts, err := s.sessionOptions(ctx, host)
	if err != nil {
		return -1, "", err
	}
	args := append([]string{}, s.command[1:]...)
	args = append(args, opts...)
	args = append(args, "-o", "BatchMode=yes", host, command)
	s.Log.WithFields(logrus.Fields{"host": host, "command": command}).Debug("ssh")
	res, err := s.exec(ctx, "", s.command[0], args...)
	if err != nil {
		return -1, res.Stdout, err
	}
	if res.Exit != 0 && res.Stderr != "" {
		s.Log.WithFields(logrus.Fields{"host": host, "exit": res.Exit}).Debug(res.Stderr)
	}
	return res.Exit, res.Stdout, nil
}

// Clone clones source into dest. ssh sources are cloned through this
// provider's ssh command and any shared session for the source host.
func (s *SSH) Clone(ctx context.Context, kind Kind, source, dest string) error {
	if kind != KindSSH {
		return gitx.Clone(ctx, s.Git, "", source, dest)
	}
	var opts []string
	if host := SourceHost(source); host != "" {
		var err error
		if opts, err = s.sessionOptions(ctx, host); err != nil {
			return err
		}
	}
	words := append(append([]string{}, s.command...), opts...)
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = ShellQuote(w)
	}
	return gitx.Clone(ctx, s.Git, "", source, dest, "core.sshCommand="+strings.Join(quoted, " "))
}

// Close tears down every shared session opened by this provider.
func (s *SSH) Close() error {
	var result *multierror.Error
	for _, host := range s.Sessions() {
		path := s.sessions[host]
		args := append([]string{}, s.command[1:]...)
		args = append(args, "-o", "ControlPath="+path, "-O", "exit", host)
		res, err := s.exec(context.Background(), "", s.command[0], args...)
		switch {
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("close ssh session %s: %w", host, err))
		case res.Exit != 0:
			result = multierror.Append(result, fmt.Errorf("close ssh session %s: exit %d: %s", host, res.Exit, res.Stderr))
		}
		delete(s.sessions, host)
	}
	if s.controlDir != "" {
		if err := os.RemoveAll(s.controlDir); err != nil {
			result = multierror.Append(result, err)
		}
		s.controlDir = ""
	}
	return result.ErrorOrNil()
}

// sessionOptions returns the ssh options that route through the shared
// session for host, opening it when allowed. Hosts without a session get
// no options and a single notice.
func (s *SSH) sessionOptions(ctx context.Context, host string) ([]string, error) {
	if path, ok := s.sessions[host]; ok {
		return []string{"-o", "ControlPath=" + path}, nil
	}
	if !s.masters[host] {
		s.noticeOnce(host, fmt.Sprintf("%s: no shared ssh session configured, using direct connections", host))
		return nil, nil
	}
	if s.controlDir == "" {
		dir, err := os.MkdirTemp("", "gitsync-ssh-")
		if err != nil {
			return nil, err
		}
		s.controlDir = dir
	}
	path := filepath.Join(s.controlDir, "%C")
	args := append([]string{}, s.command[1:]...)
	args = append(args, "-o", "ControlMaster=yes", "-o", "ControlPath="+path, "-o", "BatchMode=yes", "-f", "-N", host)
	s.Log.WithField("host", host).Info("opening shared ssh session")
	res, err := s.exec(ctx, "", s.command[0], args...)
	if err != nil {
		if intErr := gitx.Interrupted(err); intErr != nil {
			return nil, intErr
		}
		s.noticeOnce(host, fmt.Sprintf("%s: shared ssh session failed (%v), using direct connections", host, err))
		s.masters[host] = false
		return nil, nil
	}
	if res.Exit != 0 {
		s.noticeOnce(host, fmt.Sprintf("%s: shared ssh session failed (exit %d), using direct connections", host, res.Exit))
		s.masters[host] = false
		return nil, nil
	}
	s.sessions[host] = path
	return []string{"-o", "ControlPath=" + path}, nil
}

func (s *SSH) noticeOnce(host, msg string) {
	if s.noticed[host] {
		return
	}
	s.noticed[host] = true
	if s.Notice != nil {
		s.Notice(msg)
		return
	}
	s.Log.Info(msg)
}
