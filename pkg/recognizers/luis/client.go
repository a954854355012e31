package luis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/parleykit/parley/pkg/domain"
)

// Client queries a hosted intent service and implements ports.Recognizer.
type Client struct {
	baseURL         string
	appID           string
	subscriptionKey string
	httpClient      *http.Client
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client (timeouts, transport).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the endpoint derived from the config's region.
// Intended for tests and self-hosted deployments.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// NewClient creates a recognizer client for the connected service. The
// config's key fields must already be decrypted.
func NewClient(cfg ServiceConfig, opts ...ClientOption) (*Client, error) {
	if cfg.AppID == "" {
		return nil, fmt.Errorf("service config: app_id is required")
	}
	if cfg.SubscriptionKey == "" {
		return nil, fmt.Errorf("service config: subscription_key is required")
	}

	c := &Client{
		baseURL:         cfg.Endpoint(),
		appID:           cfg.AppID,
		subscriptionKey: cfg.SubscriptionKey,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// wire types of the prediction endpoint.
type predictionResponse struct {
	Query   string `json:"query"`
	Intents []struct {
		Intent string  `json:"intent"`
		Score  float64 `json:"score"`
	} `json:"intents"`
}

// Recognize sends text to the prediction endpoint and returns the ranked
// intents. The conversation ID is not part of the request; the service is
// stateless per query.
func (c *Client) Recognize(ctx context.Context, _ string, text string) (domain.RankedIntents, error) {
	endpoint := fmt.Sprintf("%s/luis/v2.0/apps/%s", c.baseURL, url.PathEscape(c.appID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build prediction request: %w", err)
	}

	q := req.URL.Query()
	q.Set("q", text)
	q.Set("verbose", "true")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prediction request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("prediction request: unexpected status %d", resp.StatusCode)
	}

	var body predictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode prediction response: %w", err)
	}

	intents := make(domain.RankedIntents, 0, len(body.Intents))
	for _, in := range body.Intents {
		intents = append(intents, domain.Intent{Name: in.Intent, Score: in.Score})
	}
	return intents, nil
}
