// Package httpfetch issues single GET requests and parses the body as a
// generic JSON document.
package httpfetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 15 * time.Second
	userAgent      = "weather-ph/1.0"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrMalformedBody    = errors.New("malformed response body")
)

// Fetcher performs one GET per call with no retries. The response body is
// always drained and closed by resty, on success and failure alike.
type Fetcher struct {
	client *resty.Client
	logger *zap.Logger
}

func New(logger *zap.Logger) *Fetcher {
	client := resty.New().
		SetTimeout(defaultTimeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	return NewWithClient(client, logger)
}

func NewWithClient(client *resty.Client, logger *zap.Logger) *Fetcher {
	return &Fetcher{client: client, logger: logger}
}

// Fetch returns the parsed body when the status is exactly 200.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Document, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		f.logger.Debug("HTTP request failed", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("GET request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		f.logger.Debug("HTTP request returned non-OK status",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode()))
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode())
	}

	var doc Document
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedBody)
	}

	f.logger.Debug("HTTP request completed",
		zap.String("url", url),
		zap.Duration("duration", resp.Time()),
		zap.Int("body_size", len(resp.Body())))

	return doc, nil
}
