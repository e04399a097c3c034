package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/trainchat/transit-bot-go/internal/errors"
	"github.com/trainchat/transit-bot-go/internal/model"
)

const defaultGraphURL = "https://graph.facebook.com/v2.8"

// Client talks to the Messenger Graph API: outbound sends and profile
// lookups. Page tokens are supplied per call since one server hosts
// several pages.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultGraphURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Send delivers one message to a user on behalf of the page owning token.
func (c *Client) Send(ctx context.Context, userID string, content Content, token string) error {
	msg, err := content.MarshalMessage()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	body, err := json.Marshal(struct {
		Recipient struct {
			ID string `json:"id"`
		} `json:"recipient"`
		Message json.RawMessage `json:"message"`
	}{
		Recipient: struct {
			ID string `json:"id"`
		}{ID: userID},
		Message: msg,
	})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/me/messages?access_token=%s", c.baseURL, url.QueryEscape(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.External("messenger", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.External("messenger",
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet))
	}
	return nil
}

// FetchProfile loads a user's display info from the Graph API.
func (c *Client) FetchProfile(ctx context.Context, userID, token string) (*model.Profile, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=first_name,last_name&access_token=%s",
		c.baseURL, url.PathEscape(userID), url.QueryEscape(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.External("messenger", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.External("messenger",
			fmt.Errorf("profile fetch status %d", resp.StatusCode))
	}

	var raw struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	return &model.Profile{
		FirstName:   raw.FirstName,
		LastName:    raw.LastName,
		ProfileDate: time.Now().UnixMilli(),
	}, nil
}
