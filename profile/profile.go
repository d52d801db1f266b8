// Package profile fetches the display profile of the signed-in account. It is
// for presentation only; the session identity comes from the access token.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/coursehub-session/token"
)

const MePath = "user/me/"

var ErrUnavailable = errors.New("profile unavailable")

type Profile struct {
	ID       string     `json:"id,omitempty"`
	FullName string     `json:"full_name"`
	Email    string     `json:"email,omitempty"`
	Role     token.Role `json:"role"`
}

// Client reads the profile through an authenticated *http.Client.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("[NewClient] httpClient is required")
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("[NewClient] invalid base url %q", baseURL)
	}
	return &Client{baseURL: u, httpClient: httpClient}, nil
}

func (c *Client) Get(ctx context.Context) (*Profile, error) {
	endpoint := c.baseURL.ResolveReference(&url.URL{Path: MePath})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: parse response: %w", ErrUnavailable, err)
	}
	return &p, nil
}
