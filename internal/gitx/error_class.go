// SPDX-License-Identifier: MIT
package gitx

import (
	"context"
	"errors"
	"strings"
)

// Error classes reported in SyncOutcome.ErrorClass.
const (
	ClassInterrupted   = "interrupted"
	ClassTimeout       = "timeout"
	ClassAuth          = "auth"
	ClassNetwork       = "network"
	ClassCorrupt       = "corrupt"
	ClassMissingRemote = "missing_remote"
	ClassBridge        = "bridge"
	ClassUnknown       = "unknown"
)

// classRules is matched in order against the lowercased error text, so a
// message mentioning both a host lookup and a timeout is a network failure.
var classRules = []struct {
	class   string
	needles []string
}{
	{ClassAuth, []string{
		"permission denied", "authentication failed", "access denied", "publickey",
		"could not read username", "credential", "host key verification failed",
		"bad credentials",
	}},
	{ClassNetwork, []string{
		"could not resolve host", "could not resolve hostname", "network is unreachable",
		"connection timed out", "connection refused", "connection reset", "failed to connect",
		"temporary failure in name resolution", "tls handshake timeout", "unable to access",
		"connection closed by remote host",
	}},
	{ClassTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{ClassBridge, []string{"svn-remote", "git-svn", "ra layer request failed"}},
	{ClassCorrupt, []string{"not a git repository", "bad object", "corrupt", "object file", "loose object"}},
	{ClassMissingRemote, []string{
		"repository not found", "does not appear to be a git repository",
		"couldn't find remote ref", "remote ref does not exist", "no such remote",
		"no upstream configured", "no such file or directory",
	}},
}

// ClassifyError maps a git or transport failure to a coarse class. It
// returns "" for nil.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	var sigErr *SignalError
	switch {
	case errors.As(err, &sigErr), errors.Is(err, context.Canceled):
		return ClassInterrupted
	case errors.Is(err, context.DeadlineExceeded):
		return ClassTimeout
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range classRules {
		for _, needle := range rule.needles {
			if strings.Contains(msg, needle) {
				return rule.class
			}
		}
	}
	return ClassUnknown
}
