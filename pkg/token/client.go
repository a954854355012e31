// Package token provides a client for a remote identity/token service:
// per-user OAuth token retrieval, sign-out, sign-in links, and token status.
// The service contract treats not-found as an empty result, not an error.
package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Response is a retrieved user token.
type Response struct {
	ConnectionName string `json:"connectionName"`
	Token          string `json:"token"`
	Expiration     string `json:"expiration,omitempty"`
}

// Status reports one connection's token state for a user.
type Status struct {
	ConnectionName  string `json:"connectionName"`
	HasToken        bool   `json:"hasToken"`
	ServiceProvider string `json:"serviceProviderDisplayName,omitempty"`
}

// Client talks to the token service over HTTPS.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a token service client. Construction fails unless
// baseURL is a valid absolute https:// URI.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse token service uri: %w", err)
	}
	if u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("token service uri must be absolute https, got %q", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetUserToken retrieves the user's token for a connection. A not-found
// response yields (nil, nil): the user simply has not signed in yet.
func (c *Client) GetUserToken(ctx context.Context, userID, connection, magicCode string) (*Response, error) {
	q := url.Values{
		"userId":         {userID},
		"connectionName": {connection},
	}
	if magicCode != "" {
		q.Set("code", magicCode)
	}

	resp, err := c.do(ctx, http.MethodGet, "/api/usertoken/GetToken", q)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var tok Response
		if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
			return nil, fmt.Errorf("decode token response: %w", err)
		}
		return &tok, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("get user token: unexpected status %d", resp.StatusCode)
	}
}

// SignOut invalidates the user's token for a connection.
func (c *Client) SignOut(ctx context.Context, userID, connection string) error {
	q := url.Values{
		"userId":         {userID},
		"connectionName": {connection},
	}

	resp, err := c.do(ctx, http.MethodDelete, "/api/usertoken/SignOut", q)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("sign out: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// GetSignInLink returns the URL a user visits to authorize a connection.
func (c *Client) GetSignInLink(ctx context.Context, userID, connection string) (string, error) {
	q := url.Values{
		"userId":         {userID},
		"connectionName": {connection},
	}

	resp, err := c.do(ctx, http.MethodGet, "/api/botsignin/GetSignInUrl", q)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("get sign-in link: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read sign-in link: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

// GetTokenStatus lists the user's connections and whether each holds a
// token. A user with no connections yields an empty slice.
func (c *Client) GetTokenStatus(ctx context.Context, userID string) ([]Status, error) {
	q := url.Values{"userId": {userID}}

	resp, err := c.do(ctx, http.MethodGet, "/api/usertoken/GetTokenStatus", q)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var statuses []Status
		if err := json.NewDecoder(resp.Body).Decode(&statuses); err != nil {
			return nil, fmt.Errorf("decode token status: %w", err)
		}
		return statuses, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("get token status: unexpected status %d", resp.StatusCode)
	}
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build token service request: %w", err)
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token service request: %w", err)
	}
	return resp, nil
}
