package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/trainchat/transit-bot-go/internal/errors"
)

const (
	defaultHostname   = "api.wit.ai"
	defaultAPIVersion = "20160526"
)

// Client classifies free-text utterances through a Wit-style message
// endpoint.
type Client struct {
	token      string
	hostname   string
	apiVersion string
	http       *http.Client
}

func NewClient(token, hostname string) *Client {
	if hostname == "" {
		hostname = defaultHostname
	}
	return &Client{
		token:      token,
		hostname:   hostname,
		apiVersion: defaultAPIVersion,
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

// Classify runs intent/entity extraction over one utterance.
func (c *Client) Classify(ctx context.Context, text string) (*Response, error) {
	q := url.Values{}
	q.Set("v", c.apiVersion)
	q.Set("q", text)
	endpoint := fmt.Sprintf("https://%s/message?%s", c.hostname, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.External("nlu", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.External("nlu",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode nlu response: %w", err)
	}
	return &out, nil
}
