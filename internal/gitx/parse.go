package gitx

import (
	"strings"
)

// DefaultBridgeRef is the synthetic tracking ref used by git-svn when the
// fetch refspec names none.
const DefaultBridgeRef = "refs/remotes/git-svn"

// SplitLines splits command output into trimmed, non-empty lines.
func SplitLines(output string) []string {
	if strings.TrimSpace(output) == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// ParseBridgeRef extracts the local ref from an svn-remote fetch refspec
// such as "trunk:refs/remotes/origin/trunk".
func ParseBridgeRef(refspec string) string {
	refspec = strings.TrimSpace(refspec)
	if i := strings.LastIndex(refspec, ":"); i >= 0 {
		if ref := strings.TrimSpace(refspec[i+1:]); ref != "" {
			return ref
		}
	}
	return DefaultBridgeRef
}

// TrimRepoSuffix strips a trailing ".git" from a repository name.
func TrimRepoSuffix(name string) string {
	trimmed := strings.TrimSuffix(name, ".git")
	if trimmed == "" {
		return name
	}
	return trimmed
}
