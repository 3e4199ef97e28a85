package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	// GitHubName is the registry name of the GitHub provider.
	GitHubName = "github"

	defaultGitHubAPI = "https://api.github.com"
)

// GitHubProvider implements Provider against GitHub's OAuth2 apps.
type GitHubProvider struct {
	oauthConfig *oauth2.Config
	apiBaseURL  string
}

// GitHubOption customizes a GitHubProvider.
type GitHubOption func(*GitHubProvider)

// WithEndpoint overrides the authorization and token endpoints.
func WithEndpoint(endpoint oauth2.Endpoint) GitHubOption {
	return func(p *GitHubProvider) {
		p.oauthConfig.Endpoint = endpoint
	}
}

// WithAPIBaseURL overrides the REST API root used to fetch the user.
func WithAPIBaseURL(url string) GitHubOption {
	return func(p *GitHubProvider) {
		p.apiBaseURL = strings.TrimRight(url, "/")
	}
}

// NewGitHubProvider requires a client id, secret and redirect URL.
func NewGitHubProvider(clientID, clientSecret, redirectURL string, opts ...GitHubOption) (*GitHubProvider, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("github oauth config missing required fields")
	}

	p := &GitHubProvider{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     github.Endpoint,
			Scopes:       []string{"read:user", "user:email"},
		},
		apiBaseURL: defaultGitHubAPI,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the provider identifier used by the registry.
func (p *GitHubProvider) Name() string {
	return GitHubName
}

// AuthCodeURL builds the GitHub authorization URL.
func (p *GitHubProvider) AuthCodeURL(state string) string {
	return p.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type githubUser struct {
	ID       int64  `json:"id"`
	Login    string `json:"login"`
	Email    string `json:"email"`
	Location string `json:"location"`
}

// Exchange trades code for an access token and reads the authenticated user.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("github token exchange failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBaseURL+"/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.oauthConfig.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("github user request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github user request returned status %d", resp.StatusCode)
	}

	var u githubUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("failed to decode github user: %w", err)
	}
	if u.ID == 0 || u.Login == "" {
		return nil, errors.New("github user response missing id or login")
	}

	return &Profile{
		Provider:   GitHubName,
		ExternalID: strconv.FormatInt(u.ID, 10),
		Login:      u.Login,
		Email:      u.Email,
		Location:   u.Location,
	}, nil
}
