package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/skaphos/gitsync/internal/model"
)

// Category is one named group of targets.
type Category struct {
	Into Values `yaml:"into"`
	// Host and Path select remote mode. Path may carry "host:path".
	Host string `yaml:"host,omitempty"`
	Path Values `yaml:"path,omitempty"`
	// GitHub lists forge accounts and selects forge mode.
	GitHub       Values `yaml:"github,omitempty"`
	Organization bool   `yaml:"organization,omitempty"`
	Login        string `yaml:"login,omitempty"`
	Token        string `yaml:"token,omitempty"`
	Network      bool   `yaml:"network,omitempty"`
	Email        string `yaml:"email,omitempty"`
	// SSHMaster lists hosts allowed a shared multiplexed session.
	SSHMaster Values `yaml:"sshmaster,omitempty"`
	// APIURL overrides the forge API endpoint.
	APIURL string `yaml:"api_url,omitempty"`
}

// Mode reports the provisioning mode selected by the category's keys.
func (c Category) Mode() model.Mode {
	switch {
	case len(c.GitHub) > 0:
		return model.ModeForge
	case c.Host != "" || len(c.Path) > 0:
		return model.ModeRemote
	default:
		return model.ModeLocal
	}
}

// Error is a configuration problem scoped to one category.
type Error struct {
	Category string
	Key      string
	Msg      string
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("category %q: %s", e.Category, e.Msg)
	}
	return fmt.Sprintf("category %q: %s: %s", e.Category, e.Key, e.Msg)
}

// Destination returns the single "into" directory required by forge and
// remote categories.
func (c Category) Destination(name string) (string, error) {
	into, ok := c.Into.One()
	if !ok {
		return "", &Error{Category: name, Key: "into", Msg: fmt.Sprintf("exactly one destination required, got %d", len(c.Into))}
	}
	return into, nil
}

// RemoteLocation resolves the host and the remote paths of a remote
// category. A path written as "host:path" supplies both.
func (c Category) RemoteLocation(name string) (string, []string, error) {
	host := c.Host
	paths := make([]string, 0, len(c.Path))
	for _, p := range c.Path {
		if h, rest, ok := strings.Cut(p, ":"); ok && !strings.Contains(h, "/") {
			if host != "" && host != h {
				return "", nil, &Error{Category: name, Key: "path", Msg: fmt.Sprintf("host %q conflicts with %q", h, host)}
			}
			host = h
			p = rest
		}
		if strings.TrimSpace(p) == "" {
			continue
		}
		paths = append(paths, p)
	}
	if host == "" {
		return "", nil, &Error{Category: name, Key: "host", Msg: "remote host required"}
	}
	if len(paths) == 0 {
		return "", nil, &Error{Category: name, Key: "path", Msg: "at least one remote path required"}
	}
	return host, paths, nil
}

// ResolvedToken returns the configured forge token, falling back to the
// GITHUB_TOKEN environment variable.
func (c Category) ResolvedToken() string {
	if c.Token != "" {
		return c.Token
	}
	return os.Getenv(EnvToken)
}
