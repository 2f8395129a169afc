package inbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Zephyr-r/Zephyrus/internal/messaging"
	"github.com/Zephyr-r/Zephyrus/models"
)

// Client implements Service over the server's HTTP API using the caller's
// bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Conversations(ctx context.Context) ([]models.Conversation, error) {
	var out struct {
		Data []models.Conversation `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/messages/chats", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) History(ctx context.Context, counterpartID uint) ([]models.MessageView, error) {
	var out struct {
		Data []models.MessageView `json:"data"`
	}
	path := fmt.Sprintf("/api/messages/history/%d", counterpartID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) MarkRead(ctx context.Context, counterpartID uint) error {
	path := fmt.Sprintf("/api/messages/read/%d", counterpartID)
	return c.do(ctx, http.MethodPut, path, nil, nil)
}

func (c *Client) Send(ctx context.Context, in messaging.SendInput) (*models.MessageView, error) {
	var out struct {
		Data models.MessageView `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/messages/send", in, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
