// Package backend talks to the auth service of a hosted Supabase project.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	authPrefix = "/auth/v1"
	userAgent  = "connectcheck/1.0"
)

var (
	// ErrNoSession is returned by Session when the client holds no access
	// token. The service was still contacted.
	ErrNoSession = errors.New("no active session")

	ErrInvalidURL = errors.New("invalid service URL")
	ErrMissingKey = errors.New("service key is empty")
)

// User is the subset of the auth user record the tool reads.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Session is the caller's current authentication state.
type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	User        *User     `json:"user,omitempty"`
}

// APIError is a non-2xx reply from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// errorBody covers the field names the gateway and the auth server use.
type errorBody struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	Error            string `json:"error"`
}

func (b errorBody) text() string {
	for _, s := range []string{b.Msg, b.Message, b.ErrorDescription, b.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

type Client struct {
	http        *resty.Client
	baseURL     string
	accessToken string
}

type Option func(*options)

type options struct {
	timeout     time.Duration
	accessToken string
	httpClient  *http.Client
}

// WithTimeout bounds each request. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithAccessToken makes Session fetch the user behind token.
func WithAccessToken(token string) Option {
	return func(o *options) { o.accessToken = token }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// NewClient validates its inputs and builds a client. It performs no I/O.
func NewClient(rawURL, key string, opts ...Option) (*Client, error) {
	base, err := normalizeBaseURL(rawURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(key) == "" {
		return nil, ErrMissingKey
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var rc *resty.Client
	if o.httpClient != nil {
		rc = resty.NewWithClient(o.httpClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(base + authPrefix).
		SetHeader("apikey", key).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")
	if o.timeout > 0 {
		rc.SetTimeout(o.timeout)
	}

	// Requests without a user token authenticate with the key itself.
	bearer := key
	if o.accessToken != "" {
		bearer = o.accessToken
	}
	rc.SetAuthToken(bearer)

	return &Client{http: rc, baseURL: base, accessToken: o.accessToken}, nil
}

// BaseURL is the normalized project URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Session returns the current session. Without an access token it checks
// that the auth service answers and accepts the key, then returns
// ErrNoSession.
func (c *Client) Session(ctx context.Context) (*Session, error) {
	if c.accessToken == "" {
		if _, err := c.get(ctx, "/health", nil); err != nil {
			return nil, err
		}
		return nil, ErrNoSession
	}

	var u User
	if _, err := c.get(ctx, "/user", &u); err != nil {
		return nil, err
	}
	return &Session{AccessToken: c.accessToken, TokenType: "bearer", User: &u}, nil
}

func (c *Client) get(ctx context.Context, path string, result any) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx)
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Get(path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return resp, parseAPIError(resp.StatusCode(), resp.Body())
	}
	return resp, nil
}

func parseAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}
	var b errorBody
	if len(body) > 0 && json.Unmarshal(body, &b) == nil {
		e.Message = b.text()
	}
	return e
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidURL, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return strings.TrimRight(u.Scheme+"://"+u.Host+u.Path, "/"), nil
}
