package location

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vzahanych/weather-ph/internal/httpfetch"
	"github.com/vzahanych/weather-ph/internal/metrics"
	"github.com/vzahanych/weather-ph/internal/validation"
	"go.uber.org/zap"
)

const defaultIPAPIURL = "http://ip-api.com"

// DocumentFetcher is satisfied by *httpfetch.Fetcher.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (httpfetch.Document, error)
}

// IPAPIProvider approximates the device position from its public IP using
// ip-api.com. Accuracy is ignored: the service only has one tier.
type IPAPIProvider struct {
	baseURL string
	http    DocumentFetcher
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewIPAPIProvider(baseURL string, http DocumentFetcher, logger *zap.Logger, m *metrics.Metrics) *IPAPIProvider {
	if baseURL == "" {
		baseURL = defaultIPAPIURL
	}
	return &IPAPIProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http,
		logger:  logger.With(zap.String("provider", "ip-api")),
		metrics: m,
	}
}

func (p *IPAPIProvider) CurrentLocation(ctx context.Context, accuracy Accuracy) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		ch <- p.lookup(ctx, accuracy)
	}()
	return ch
}

func (p *IPAPIProvider) lookup(ctx context.Context, accuracy Accuracy) Result {
	url := p.baseURL + "/json/?fields=status,message,lat,lon"

	started := time.Now()
	doc, err := p.http.Fetch(ctx, url)
	p.metrics.ObserveUpstream("ip-api", started)
	if err != nil {
		p.logger.Warn("IP geolocation request failed", zap.Error(err))
		return Result{Err: fmt.Errorf("%w: %w", ErrUnavailable, err)}
	}

	status, err := doc.String("status")
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %w", ErrUnavailable, err)}
	}
	if status != "success" {
		msg, _ := doc.String("message")
		p.logger.Debug("IP geolocation has no fix", zap.String("status", status), zap.String("message", msg))
		return Result{}
	}

	lat, err := doc.Float("lat")
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %w", ErrUnavailable, err)}
	}
	lon, err := doc.Float("lon")
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %w", ErrUnavailable, err)}
	}
	if !validation.ValidLatitude(lat) || !validation.ValidLongitude(lon) {
		return Result{}
	}

	p.logger.Debug("IP geolocation fix",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.Stringer("accuracy", accuracy))

	return Result{Fix: &Fix{Latitude: lat, Longitude: lon, Source: "ip-api"}}
}
