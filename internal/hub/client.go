// Package hub is a small Docker Hub v2 API client covering login, the
// namespace repository listing and tag lookups.
package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/ratelimit"
)

// Defaults for the public Docker Hub.
const (
	DefaultURL       = "https://hub.docker.com/v2"
	DefaultNamespace = "library"
	DefaultPageSize  = 100
	DefaultMaxRPS    = 5
)

// Sentinel errors returned by Client methods. Callers match them with errors.Is.
var (
	// ErrAuthentication is returned when the login exchange is rejected.
	ErrAuthentication = errors.New("authentication failed")

	// ErrTransport is returned when a request cannot be sent or the API
	// answers with an unexpected status.
	ErrTransport = errors.New("hub request failed")

	// ErrDecode is returned when a response body is not the expected JSON.
	ErrDecode = errors.New("decoding hub response")
)

// Client talks to the Docker Hub API. A Client is immutable; Authenticated
// returns a copy carrying a bearer token.
type Client struct {
	baseURL    string
	namespace  string
	pageSize   int
	token      string
	httpClient *http.Client
	limiter    ratelimit.Limiter
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for every request.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithNamespace sets the repository namespace, "library" by default.
func WithNamespace(ns string) Option {
	return func(cl *Client) {
		if ns != "" {
			cl.namespace = ns
		}
	}
}

// WithPageSize sets the page_size query parameter of listing requests.
func WithPageSize(n int) Option {
	return func(cl *Client) {
		if n > 0 {
			cl.pageSize = n
		}
	}
}

// WithMaxRPS caps the request rate. Zero or less disables the limit.
func WithMaxRPS(rps int) Option {
	return func(cl *Client) {
		if rps <= 0 {
			cl.limiter = ratelimit.NewUnlimited()

			return
		}

		cl.limiter = ratelimit.New(rps)
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

// NewClient creates an anonymous Client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		namespace:  DefaultNamespace,
		pageSize:   DefaultPageSize,
		httpClient: http.DefaultClient,
		limiter:    ratelimit.New(DefaultMaxRPS),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Authenticated returns a copy of the client that sends token as a bearer
// token on listing requests.
func (c *Client) Authenticated(token string) *Client {
	cp := *c
	cp.token = token

	return &cp
}

// HasToken reports whether the client carries a bearer token.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// Namespace returns the repository namespace the client lists.
func (c *Client) Namespace() string {
	return c.namespace
}

// Login exchanges a username and password or access token for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	c.logger.Debug("authenticating", "username", username)

	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("encoding login request: %w", err)
	}

	c.limiter.Take()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building login request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: login: %w", ErrTransport, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: login returned status %d", ErrAuthentication, resp.StatusCode)
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", fmt.Errorf("%w: login response: %w", ErrDecode, err)
	}

	if lr.Token == "" {
		return "", fmt.Errorf("%w: login response carries no token", ErrAuthentication)
	}

	return lr.Token, nil
}

// ListRepositories returns every repository of the namespace, following the
// next link until the last page.
func (c *Client) ListRepositories(ctx context.Context) ([]Repository, error) {
	first := fmt.Sprintf("%s/repositories/%s/%s", c.baseURL, url.PathEscape(c.namespace), c.pageQuery())

	repos, err := paginate[Repository](ctx, c, first)
	if err != nil {
		return nil, fmt.Errorf("listing repositories of %s: %w", c.namespace, err)
	}

	return repos, nil
}

// ListTags returns every tag of the named repository, following the next
// link until the last page.
func (c *Client) ListTags(ctx context.Context, repository string) ([]Tag, error) {
	first := fmt.Sprintf("%s/tags/%s", c.repositoryURL(repository), c.pageQuery())

	tags, err := paginate[Tag](ctx, c, first)
	if err != nil {
		return nil, fmt.Errorf("listing tags of %s: %w", repository, err)
	}

	return tags, nil
}

// TagExists probes a single tag with a HEAD request. Only a direct 200 answer
// counts as present; redirects are not followed. The probe is sent without
// the bearer token.
func (c *Client) TagExists(ctx context.Context, repository, tag string) (bool, error) {
	target := fmt.Sprintf("%s/tags/%s", c.repositoryURL(repository), url.PathEscape(tag))

	c.limiter.Take()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, http.NoBody)
	if err != nil {
		return false, fmt.Errorf("building request for %s: %w", target, err)
	}

	resp, err := c.probeClient().Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: HEAD %s: %w", ErrTransport, target, err)
	}
	defer resp.Body.Close() //nolint:errcheck // HEAD has no body

	c.logger.Debug("probed tag", "repository", repository, "tag", tag, "status", resp.StatusCode)

	return resp.StatusCode == http.StatusOK, nil
}

// probeClient is the HTTP client with redirect following disabled.
func (c *Client) probeClient() *http.Client {
	cp := *c.httpClient
	cp.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &cp
}

func (c *Client) repositoryURL(repository string) string {
	return fmt.Sprintf("%s/repositories/%s/%s", c.baseURL, url.PathEscape(c.namespace), url.PathEscape(repository))
}

func (c *Client) pageQuery() string {
	return fmt.Sprintf("?page=1&page_size=%d", c.pageSize)
}

// paginate fetches first and every page linked through next, returning the
// concatenated results in upstream order.
func paginate[T any](ctx context.Context, c *Client, first string) ([]T, error) {
	var results []T

	next := first
	for pages := 1; ; pages++ {
		var p page[T]
		if err := c.getJSON(ctx, next, &p); err != nil {
			return nil, err
		}

		results = append(results, p.Results...)
		c.logger.Debug("fetched page", "url", next, "page", pages, "results", len(p.Results))

		if p.Next == nil || *p.Next == "" {
			return results, nil
		}

		next = *p.Next
	}
}

func (c *Client) getJSON(ctx context.Context, target string, v any) error {
	c.limiter.Take()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", target, err)
	}

	req.Header.Set("Accept", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrTransport, target, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %w", ErrTransport, target, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: GET %s returned status %d", ErrTransport, target, resp.StatusCode)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, target, err)
	}

	return nil
}
