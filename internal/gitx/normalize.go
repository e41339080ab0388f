package gitx

import (
	"net/url"
	"path"
	"strings"
)

// NormalizeURL reduces a remote URL to a host/path identity so that the same
// repository reached over https, ssh or scp-style syntax compares equal.
// The host is lowercased; user, port, a trailing ".git" and trailing
// slashes are dropped. Local paths and file:// URLs become cleaned paths.
//
//	git@github.com:Org/Repo.git    → github.com/Org/Repo
//	ssh://git@github.com:22/Org/Repo → github.com/Org/Repo
//	box:/srv/git/tool.git          → box/srv/git/tool
func NormalizeURL(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return ""
	}
	host, p := splitRemote(raw)
	p = strings.TrimRight(p, "/")
	p = strings.TrimSuffix(p, ".git")
	p = strings.TrimRight(p, "/")
	if host == "" {
		return p
	}
	return strings.ToLower(host) + "/" + strings.TrimLeft(p, "/")
}

func splitRemote(raw string) (host, p string) {
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", raw
		}
		if u.Scheme == "file" {
			return "", path.Clean(u.Path)
		}
		return u.Hostname(), u.Path
	}
	// scp-like [user@]host:path; a slash before the colon means a local path.
	colon := strings.Index(raw, ":")
	if colon <= 0 || strings.Contains(raw[:colon], "/") {
		return "", path.Clean(raw)
	}
	host = raw[:colon]
	if at := strings.LastIndex(host, "@"); at >= 0 {
		host = host[at+1:]
	}
	return host, raw[colon+1:]
}
