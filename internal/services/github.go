package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

var (
	// ErrNoAccessToken is returned when the code exchange yields no access token.
	ErrNoAccessToken = errors.New("failed to retrieve access token")
)

// ProviderError is a non-2xx answer from GitHub. Body is the decoded response payload.
type ProviderError struct {
	StatusCode int
	Body       any
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("github responded with status %d", e.StatusCode)
}

// GitHubUser is the subset of the GitHub profile used to mint a session.
type GitHubUser struct {
	NodeID    string `json:"node_id"`
	AvatarURL string `json:"avatar_url"`
	Name      string `json:"name"`
}

// GitHubConfig configures the OAuth app and API location.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	APIURL       string
	// Endpoint overrides github.Endpoint, mainly for tests.
	Endpoint *oauth2.Endpoint
	Timeout  time.Duration
}

// GitHubClient runs the OAuth code exchange and profile lookup.
type GitHubClient struct {
	oauth  *oauth2.Config
	apiURL string
	http   *http.Client
}

func NewGitHubClient(cfg GitHubConfig) *GitHubClient {
	endpoint := github.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.github.com"
	}

	return &GitHubClient{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
		},
		apiURL: apiURL,
		http:   &http.Client{Timeout: timeout},
	}
}

// AuthorizeURL is where the browser is sent to grant access.
func (g *GitHubClient) AuthorizeURL(state string) string {
	return g.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for an access token.
func (g *GitHubClient) Exchange(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.http)
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			if rerr.ErrorCode != "" {
				return "", fmt.Errorf("%w: %s", ErrNoAccessToken, rerr.ErrorCode)
			}
			return "", &ProviderError{StatusCode: rerr.Response.StatusCode, Body: decodeBody(rerr.Body)}
		}
		if strings.Contains(err.Error(), "missing access_token") {
			return "", ErrNoAccessToken
		}
		return "", fmt.Errorf("failed to exchange code: %w", err)
	}
	if tok.AccessToken == "" {
		return "", ErrNoAccessToken
	}
	return tok.AccessToken, nil
}

// User fetches the profile owning accessToken.
func (g *GitHubClient) User(ctx context.Context, accessToken string) (*GitHubUser, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.http)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch github user: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read github user: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: decodeBody(body)}
	}

	var user GitHubUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to decode github user: %w", err)
	}
	if user.NodeID == "" {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: decodeBody(body)}
	}
	return &user, nil
}

// decodeBody returns the JSON value of b, or its text when it is not JSON.
func decodeBody(b []byte) any {
	var v any
	if err := json.Unmarshal(b, &v); err == nil {
		return v
	}
	return strings.TrimSpace(string(b))
}
