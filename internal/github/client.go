// Package github wraps the GitHub REST API behind the narrow directory
// interface the gateway needs: membership reads, team membership grants,
// user profiles, and issue creation. The REST status-code conventions
// stay inside this package; callers see the tri-state membership result.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gogithub "github.com/google/go-github/v61/github"
	"golang.org/x/oauth2"

	"github.com/mesh-chile/community-gateway/internal/config"
	"github.com/mesh-chile/community-gateway/internal/promotion"
)

// ErrNotFound reports that the requested subject does not exist, as
// opposed to the lookup itself failing.
var ErrNotFound = errors.New("not found")

// Client is the directory facade. All calls are scoped to one organization.
type Client struct {
	gh  *gogithub.Client
	org string
	log *slog.Logger
}

// New builds a Client from configuration. A personal access token takes
// precedence; otherwise GitHub App installation credentials are used.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*Client, error) {
	var httpClient *http.Client
	switch {
	case cfg.GitHubToken != "":
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.GitHubToken}))
	case cfg.HasGitHubApp():
		itr, err := ghinstallation.New(http.DefaultTransport,
			cfg.GitHubAppID, cfg.GitHubInstallationID, []byte(cfg.GitHubAppPrivateKey))
		if err != nil {
			return nil, fmt.Errorf("building GitHub App transport: %w", err)
		}
		httpClient = &http.Client{Transport: itr}
	default:
		return nil, errors.New("no GitHub credentials: set GITHUB_TOKEN or the GITHUB_APP_* variables")
	}

	return &Client{
		gh:  gogithub.NewClient(httpClient),
		org: cfg.Org,
		log: log,
	}, nil
}

// TeamMembership reports whether a user holds an active or pending
// membership in the given team.
func (c *Client) TeamMembership(ctx context.Context, team, username string) (promotion.Membership, error) {
	_, resp, err := c.gh.Teams.GetTeamMembershipBySlug(ctx, c.org, team, username)
	return membershipResult(resp, err, fmt.Sprintf("team %s membership for %s", team, username))
}

// OrgMembership reports whether a user is a member of the organization.
func (c *Client) OrgMembership(ctx context.Context, username string) (promotion.Membership, error) {
	_, resp, err := c.gh.Organizations.GetOrgMembership(ctx, username, c.org)
	return membershipResult(resp, err, fmt.Sprintf("org membership for %s", username))
}

// membershipResult folds a REST response into the tri-state membership
// model: 404 is a definitive negative, any other failure is unknown.
func membershipResult(resp *gogithub.Response, err error, desc string) (promotion.Membership, error) {
	if err == nil {
		return promotion.MembershipMember, nil
	}
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return promotion.MembershipAbsent, nil
	}
	return promotion.MembershipUnknown, fmt.Errorf("%s: %w", desc, err)
}

// GrantTeamMembership adds (or re-adds, a no-op) a user to a team.
func (c *Client) GrantTeamMembership(ctx context.Context, team, username, role string) error {
	opts := &gogithub.TeamAddTeamMembershipOptions{Role: role}
	if _, _, err := c.gh.Teams.AddTeamMembershipBySlug(ctx, c.org, team, username, opts); err != nil {
		return fmt.Errorf("adding %s to team %s: %w", username, team, err)
	}
	return nil
}

// CreateIssue opens an issue in a repository of the organization.
func (c *Client) CreateIssue(ctx context.Context, repo, title, body string, labels []string) error {
	req := &gogithub.IssueRequest{
		Title:  &title,
		Body:   &body,
		Labels: &labels,
	}
	if _, _, err := c.gh.Issues.Create(ctx, c.org, repo, req); err != nil {
		return fmt.Errorf("creating issue in %s/%s: %w", c.org, repo, err)
	}
	return nil
}

// UserProfile is the public profile subset served by the preview endpoint.
type UserProfile struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatar_url"`
	Bio         string    `json:"bio"`
	Location    string    `json:"location"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	CreatedAt   time.Time `json:"created_at"`
}

// User fetches a user's public profile. Returns ErrNotFound when no such
// user exists on GitHub.
func (c *Client) User(ctx context.Context, username string) (UserProfile, error) {
	u, resp, err := c.gh.Users.Get(ctx, username)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return UserProfile{}, fmt.Errorf("user %s: %w", username, ErrNotFound)
		}
		return UserProfile{}, fmt.Errorf("fetching user %s: %w", username, err)
	}
	return UserProfile{
		Login:       u.GetLogin(),
		Name:        u.GetName(),
		AvatarURL:   u.GetAvatarURL(),
		Bio:         u.GetBio(),
		Location:    u.GetLocation(),
		PublicRepos: u.GetPublicRepos(),
		Followers:   u.GetFollowers(),
		CreatedAt:   u.GetCreatedAt().Time,
	}, nil
}

// OrgInfo is the public organization subset served by the stats endpoint.
type OrgInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	CreatedAt   time.Time `json:"created_at"`
}

// Organization fetches the configured organization's public profile.
func (c *Client) Organization(ctx context.Context) (OrgInfo, error) {
	org, _, err := c.gh.Organizations.Get(ctx, c.org)
	if err != nil {
		return OrgInfo{}, fmt.Errorf("fetching organization %s: %w", c.org, err)
	}
	return OrgInfo{
		Name:        org.GetName(),
		Description: org.GetDescription(),
		PublicRepos: org.GetPublicRepos(),
		Followers:   org.GetFollowers(),
		CreatedAt:   org.GetCreatedAt().Time,
	}, nil
}
