package forge

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/google/go-github/v80/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const defaultPerPage = 100

// GitHubOptions configures a GitHub catalog.
type GitHubOptions struct {
	// BaseURL overrides the API endpoint, e.g. for GitHub Enterprise.
	BaseURL string
	// Token is sent as a bearer token when set.
	Token string
	// Organization lists organization repositories instead of user ones.
	Organization bool
	// Login is the authenticated user. Listing that same account includes
	// private repositories.
	Login   string
	PerPage int
	// HTTPClient is the base client; the token transport wraps it.
	HTTPClient *http.Client
	Log        logrus.FieldLogger
}

// GitHub implements Catalog against the GitHub REST API.
type GitHub struct {
	client       *github.Client
	organization bool
	login        string
	perPage      int
	log          logrus.FieldLogger
}

// NewGitHub builds a GitHub catalog.
func NewGitHub(opts GitHubOptions) *GitHub {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	httpClient := opts.HTTPClient
	if opts.Token != "" {
		ctx := context.Background()
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
	}
	client := github.NewClient(httpClient)
	client.UserAgent = "gitsync"
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		if u, err := url.Parse(base); err == nil {
			client.BaseURL = u
		} else {
			log.WithError(err).Warnf("ignoring invalid api_url %q", opts.BaseURL)
		}
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	return &GitHub{
		client:       client,
		organization: opts.Organization,
		login:        opts.Login,
		perPage:      perPage,
		log:          log,
	}
}

// ListRepositories returns one page (1-based) of the account's repositories.
func (g *GitHub) ListRepositories(ctx context.Context, account string, page int) ([]Descriptor, error) {
	list := github.ListOptions{Page: page, PerPage: g.perPage}
	g.log.WithFields(logrus.Fields{"account": account, "page": page}).Debug("forge list")

	var (
		repos []*github.Repository
		err   error
	)
	switch {
	case g.organization:
		repos, _, err = g.client.Repositories.ListByOrg(ctx, account,
			&github.RepositoryListByOrgOptions{Type: "all", ListOptions: list})
	case g.login != "" && strings.EqualFold(g.login, account):
		repos, _, err = g.client.Repositories.ListByAuthenticatedUser(ctx,
			&github.RepositoryListByAuthenticatedUserOptions{Affiliation: "owner", ListOptions: list})
	default:
		repos, _, err = g.client.Repositories.ListByUser(ctx, account,
			&github.RepositoryListByUserOptions{ListOptions: list})
	}
	if err != nil {
		return nil, apiError(err)
	}
	out := make([]Descriptor, 0, len(repos))
	for _, r := range repos {
		out = append(out, Descriptor{
			Name:     r.GetName(),
			Owner:    r.GetOwner().GetLogin(),
			SSHURL:   r.GetSSHURL(),
			CloneURL: r.GetCloneURL(),
			Fork:     r.GetFork(),
		})
	}
	return out, nil
}

// ListNetwork returns the owners of the repository's parent, source and
// forks, excluding account itself, sorted.
func (g *GitHub) ListNetwork(ctx context.Context, account, repo string) ([]string, error) {
	meta, _, err := g.client.Repositories.Get(ctx, account, repo)
	if err != nil {
		return nil, apiError(err)
	}
	seen := map[string]struct{}{}
	add := func(owner string) {
		if owner == "" || strings.EqualFold(owner, account) {
			return
		}
		seen[owner] = struct{}{}
	}
	add(meta.GetParent().GetOwner().GetLogin())
	add(meta.GetSource().GetOwner().GetLogin())

	opts := &github.RepositoryListForksOptions{ListOptions: github.ListOptions{Page: 1, PerPage: g.perPage}}
	for {
		forks, resp, err := g.client.Repositories.ListForks(ctx, account, repo, opts)
		if err != nil {
			return nil, apiError(err)
		}
		for _, f := range forks {
			add(f.GetOwner().GetLogin())
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	owners := make([]string, 0, len(seen))
	for owner := range seen {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners, nil
}

// apiError converts go-github response errors into *APIError.
func apiError(err error) error {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return newAPIError(errResp.Response, errResp.Message)
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return newAPIError(rateErr.Response, rateErr.Message)
	}
	return err
}

func newAPIError(resp *http.Response, msg string) *APIError {
	e := &APIError{Status: resp.StatusCode, Message: msg}
	if resp.Request != nil {
		e.Method = resp.Request.Method
		if resp.Request.URL != nil {
			e.URL = resp.Request.URL.String()
		}
	}
	return e
}
