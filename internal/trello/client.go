package trello

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultBaseURL = "https://api.trello.com/1"

type Client struct {
	key          string
	token        string
	baseURL      string
	client       *http.Client
	apiCallCount int64
	apiCallMutex sync.Mutex
}

// Action is a card event. Only comment actions are requested, so Data.Text
// holds the comment body.
type Action struct {
	ID   string     `json:"id"`
	Type string     `json:"type"`
	Date string     `json:"date"`
	Data ActionData `json:"data"`
}

type ActionData struct {
	Text string `json:"text"`
}

// APIError is returned for any non-2xx Trello response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("trello %s %s failed with status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// NewClient returns a client for the Trello REST API. An empty baseURL means
// DefaultBaseURL.
func NewClient(key, token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		key:     key,
		token:   token,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// IncrementAPICall safely increments the API call counter
func (c *Client) IncrementAPICall() {
	c.apiCallMutex.Lock()
	c.apiCallCount++
	c.apiCallMutex.Unlock()
}

// GetAPICallCount returns the current API call count
func (c *Client) GetAPICallCount() int64 {
	c.apiCallMutex.Lock()
	defer c.apiCallMutex.Unlock()
	return c.apiCallCount
}

// ResetAPICallCount resets the API call counter to zero
func (c *Client) ResetAPICallCount() {
	c.apiCallMutex.Lock()
	c.apiCallCount = 0
	c.apiCallMutex.Unlock()
}

// ListComments returns the comment actions on a card, newest first as Trello
// orders them.
func (c *Client) ListComments(ctx context.Context, cardID string) ([]Action, error) {
	path := fmt.Sprintf("/cards/%s/actions", url.PathEscape(cardID))
	query := url.Values{"filter": {"commentCard"}}

	body, err := c.do(ctx, http.MethodGet, path, query)
	if err != nil {
		return nil, err
	}

	var actions []Action
	if err := json.Unmarshal(body, &actions); err != nil {
		return nil, fmt.Errorf("failed to decode card actions: %w", err)
	}

	log.Debug().
		Str("card_id", cardID).
		Int("comments", len(actions)).
		Msg("Retrieved card comments")
	return actions, nil
}

// CreateComment adds a new comment to a card and returns the created action.
func (c *Client) CreateComment(ctx context.Context, cardID, text string) (*Action, error) {
	path := fmt.Sprintf("/cards/%s/actions/comments", url.PathEscape(cardID))
	query := url.Values{"text": {text}}

	body, err := c.do(ctx, http.MethodPost, path, query)
	if err != nil {
		return nil, err
	}
	return decodeAction(body)
}

// UpdateComment replaces the text of an existing comment action.
func (c *Client) UpdateComment(ctx context.Context, cardID, commentID, text string) (*Action, error) {
	path := fmt.Sprintf("/cards/%s/actions/%s", url.PathEscape(cardID), url.PathEscape(commentID))
	query := url.Values{"text": {text}}

	body, err := c.do(ctx, http.MethodPut, path, query)
	if err != nil {
		return nil, err
	}
	return decodeAction(body)
}

func decodeAction(body []byte) (*Action, error) {
	var action Action
	if len(body) == 0 {
		return &action, nil
	}
	if err := json.Unmarshal(body, &action); err != nil {
		return nil, fmt.Errorf("failed to decode action: %w", err)
	}
	return &action, nil
}

// do sends an authenticated request with all parameters in the query string
// and returns the response body of a 2xx answer.
func (c *Client) do(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	query.Set("key", c.key)
	query.Set("token", c.token)
	reqURL := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	// Increment API call counter
	c.IncrementAPICall()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status_code", resp.StatusCode).
		Msg("Received Trello response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}
	return body, nil
}
