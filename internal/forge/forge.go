// Package forge lists repositories of a hosted-forge account.
package forge

import (
	"context"
	"fmt"
)

// Descriptor is one repository returned by a catalog.
type Descriptor struct {
	Name     string `json:"name"`
	Owner    string `json:"owner"`
	SSHURL   string `json:"ssh_url"`
	CloneURL string `json:"clone_url"`
	Fork     bool   `json:"fork"`
}

// Catalog lists repositories page by page. An empty page ends the listing.
type Catalog interface {
	ListRepositories(ctx context.Context, account string, page int) ([]Descriptor, error)
	// ListNetwork returns the other accounts holding a copy of repo.
	ListNetwork(ctx context.Context, account, repo string) ([]string, error)
}

// APIError is a non-success response from the forge.
type APIError struct {
	Method  string
	URL     string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.Status, e.Message)
}
