// Package codic is a small client for the Codic naming engine.
package codic

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
	"golang.org/x/time/rate"

	"github.com/joelklabo/codic-slack/internal/casing"
)

const (
	DefaultBaseURL = "https://api.codic.jp"
	translatePath  = "/v1/engine/translate.json"
)

// ErrEmptyResult is returned when Codic answers with an empty array.
var ErrEmptyResult = errors.New("codic returned no translation")

// APIError is a non-2xx answer from Codic.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("codic: status %d: %s", e.StatusCode, e.Body)
}

// Config for the Codic client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// RatePerSecond throttles outgoing calls; zero disables the limiter.
	RatePerSecond float64
	Burst         int
}

// Candidate is one naming suggestion for a word. Text is nil when Codic
// has no rendering for it.
type Candidate struct {
	Text *string `json:"text"`
}

// Word is the per-token breakdown Codic returns.
type Word struct {
	Text           string      `json:"text"`
	Successful     bool        `json:"successful"`
	Candidates     []Candidate `json:"candidates"`
	TranslatedText string      `json:"translated_text"`
}

// Translation is the result for the whole input text.
type Translation struct {
	Text           string `json:"text"`
	TranslatedText string `json:"translated_text"`
	Words          []Word `json:"words"`
}

type translateRequest struct {
	Text   string `json:"text"`
	Casing string `json:"casing,omitempty"`
}

// Client calls the translate endpoint.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return c
}

// Translate asks Codic to name text. The casing field is only sent for
// casings that carry a parameter.
func (c *Client) Translate(ctx context.Context, text string, cs casing.Casing) (Translation, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Translation{}, errors.Wrap(err, "codic rate limit")
		}
	}

	body, err := json.Marshal(translateRequest{Text: text, Casing: cs.Param()})
	if err != nil {
		return Translation{}, errors.Wrap(err, "failed to marshal codic request")
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + translatePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Translation{}, errors.Wrapf(err, "failed to construct codic request to %s", endpoint)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return Translation{}, errors.Wrap(err, "failed to call codic")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return Translation{}, errors.Wrap(err, "failed to read codic response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Translation{}, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var results []Translation
	if err := json.Unmarshal(b, &results); err != nil {
		return Translation{}, errors.Wrap(err, "failed to decode codic response")
	}
	if len(results) == 0 {
		return Translation{}, ErrEmptyResult
	}
	return results[0], nil
}
