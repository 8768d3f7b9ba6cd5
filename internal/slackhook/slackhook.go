// Package slackhook posts composed messages to Slack response URLs and
// incoming webhooks.
package slackhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/joelklabo/codic-slack/internal/compose"
)

// StatusError is a non-2xx answer from Slack.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("slack webhook returned status %d: %s", e.StatusCode, e.Body)
}

// Config for the webhook client.
type Config struct {
	Timeout time.Duration
}

// Client delivers messages. It is safe for concurrent use.
type Client struct {
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{http: &http.Client{Timeout: cfg.Timeout}}
}

// Deliver posts msg to target.
func (c *Client) Deliver(ctx context.Context, msg compose.Message, target string) error {
	if strings.TrimSpace(target) == "" {
		return errors.New("empty delivery target")
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal slack message to %s", target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "failed to construct slack request to %s", target)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to post slack message to %s", target)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return nil
}
