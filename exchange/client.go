// Package exchange talks to the backend's credential endpoints: issuing a pair
// for an email and password, renewing a pair from a refresh token, and
// registering an account.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/coursehub-session/credentials"
	"github.com/jrsteele09/coursehub-session/token"
	"github.com/rs/zerolog/log"
)

// Backend paths, relative to the base URL.
const (
	IssuePath    = "user/token/"
	RenewPath    = "user/token/refresh/"
	RegisterPath = "user/register/"
)

// Operation names used in errors and logs.
const (
	OpIssue    = "issue"
	OpRenew    = "renew"
	OpRegister = "register"
)

const DefaultTimeout = 10 * time.Second

// maxBodySize bounds how much of a response is read.
const maxBodySize = 1 << 20

// Registration is the payload of an account registration.
type Registration struct {
	FullName        string     `json:"full_name"`
	Email           string     `json:"email"`
	Password        string     `json:"password"`
	PasswordConfirm string     `json:"password_matched"`
	Role            token.Role `json:"role"`
}

type issueRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type renewRequest struct {
	Refresh string `json:"refresh"`
}

type pairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Client is the credential exchange client. It holds no session state.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client with a copy of httpClient, so
// WithTimeout never changes the caller's client. nil keeps the default. The
// exchange client must not go through the authenticated pipeline.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient == nil {
			return
		}
		cp := *httpClient
		c.httpClient = &cp
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[NewClient] invalid base url %q", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the resolved base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Issue exchanges an email and password for a credential pair.
func (c *Client) Issue(ctx context.Context, email, password string) (credentials.Pair, error) {
	var resp pairResponse
	if err := c.post(ctx, OpIssue, IssuePath, issueRequest{Email: email, Password: password}, &resp); err != nil {
		return credentials.Pair{}, err
	}
	if resp.Access == "" || resp.Refresh == "" {
		return credentials.Pair{}, &UnreachableError{Op: OpIssue, Err: errors.New("response is missing access or refresh")}
	}
	return credentials.Pair{Access: resp.Access, Refresh: resp.Refresh}, nil
}

// Renew exchanges a refresh token for a new pair. When the backend does not
// rotate refresh tokens the given one is kept.
func (c *Client) Renew(ctx context.Context, refresh string) (credentials.Pair, error) {
	var resp pairResponse
	if err := c.post(ctx, OpRenew, RenewPath, renewRequest{Refresh: refresh}, &resp); err != nil {
		return credentials.Pair{}, err
	}
	if resp.Access == "" {
		return credentials.Pair{}, &UnreachableError{Op: OpRenew, Err: errors.New("response is missing access")}
	}
	if resp.Refresh == "" {
		resp.Refresh = refresh
	}
	return credentials.Pair{Access: resp.Access, Refresh: resp.Refresh}, nil
}

// Register creates an account. It does not sign in.
func (c *Client) Register(ctx context.Context, reg Registration) error {
	return c.post(ctx, OpRegister, RegisterPath, reg, nil)
}

func (c *Client) post(ctx context.Context, op, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}

	endpoint := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("op", op).Msg("credential exchange failed")
		return &UnreachableError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &UnreachableError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Debug().Str("op", op).Int("status", resp.StatusCode).Msg("credential exchange rejected")
		return parseRejection(op, resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &UnreachableError{Op: op, Err: fmt.Errorf("parse response: %w", err)}
	}
	return nil
}
