package notifications

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
)

// Client posts plain-text messages to Slack channels.
type Client struct {
	api *slack.Client
	// Metrics
	mutex       sync.RWMutex
	totalSent   int64
	totalFailed int64
}

// DeliveryError describes a message Slack did not accept.
type DeliveryError struct {
	Type       string
	Channel    string
	StatusCode int
	Underlying error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("slack post to %s failed [%s] status %d: %v", e.Channel, e.Type, e.StatusCode, e.Underlying)
	}
	return fmt.Sprintf("slack post to %s failed [%s]: %v", e.Channel, e.Type, e.Underlying)
}

func (e *DeliveryError) Unwrap() error {
	return e.Underlying
}

// NewClient returns a client authenticating with a bot token. An empty apiURL
// means the public Slack API.
func NewClient(token, apiURL string) *Client {
	options := []slack.Option{
		slack.OptionHTTPClient(&http.Client{Timeout: 20 * time.Second}),
	}
	if apiURL != "" {
		options = append(options, slack.OptionAPIURL(apiURL))
	}
	return &Client{
		api: slack.New(token, options...),
	}
}

// PostMessage sends text to channel via chat.postMessage. The text is sent
// as-is, without Slack escaping.
func (c *Client) PostMessage(ctx context.Context, channel, text string) error {
	log.Debug().
		Str("channel", channel).
		Int("length", len(text)).
		Msg("Posting Slack message")

	_, timestamp, err := c.api.PostMessageContext(ctx, channel, slack.MsgOptionText(text, false))
	if err != nil {
		c.recordFailure()
		return categorizeError(channel, err)
	}

	c.recordSuccess()
	log.Debug().
		Str("channel", channel).
		Str("ts", timestamp).
		Msg("Slack message posted")
	return nil
}

func categorizeError(channel string, err error) *DeliveryError {
	deliveryErr := &DeliveryError{Type: "network", Channel: channel, Underlying: err}

	var statusErr slack.StatusCodeError
	var rateErr *slack.RateLimitedError
	var apiErr slack.SlackErrorResponse
	switch {
	case errors.As(err, &rateErr):
		deliveryErr.Type = "rate_limit"
		deliveryErr.StatusCode = http.StatusTooManyRequests
	case errors.As(err, &statusErr):
		deliveryErr.StatusCode = statusErr.Code
		deliveryErr.Type = categorizeHTTPError(statusErr.Code)
	case errors.As(err, &apiErr):
		deliveryErr.Type = "api"
	}
	return deliveryErr
}

func categorizeHTTPError(statusCode int) string {
	switch {
	case statusCode == 401 || statusCode == 403:
		return "auth"
	case statusCode == 429:
		return "rate_limit"
	case statusCode >= 400 && statusCode < 500:
		return "client"
	case statusCode >= 500:
		return "server"
	default:
		return "unknown"
	}
}

func (c *Client) recordSuccess() {
	c.mutex.Lock()
	c.totalSent++
	c.mutex.Unlock()
}

func (c *Client) recordFailure() {
	c.mutex.Lock()
	c.totalFailed++
	c.mutex.Unlock()
}

// GetMetrics returns how many messages were posted and how many failed
func (c *Client) GetMetrics() (sent, failed int64) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.totalSent, c.totalFailed
}
