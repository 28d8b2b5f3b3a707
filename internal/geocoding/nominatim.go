package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultNominatimURL       = "https://nominatim.openstreetmap.org"
	defaultNominatimUserAgent = "weather-ph/1.0 (https://github.com/vzahanych/weather-ph)"
)

// NominatimProvider reverse geocodes through OpenStreetMap's Nominatim API.
// Public usage is limited to 1 request/second and requires a User-Agent
// with contact information.
type NominatimProvider struct {
	client    HTTPClient
	baseURL   string
	userAgent string
	log       *zap.Logger
}

// HTTPClient allows swapping the transport in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type nominatimReverseResponse struct {
	Error       string `json:"error"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Municipality string `json:"municipality"`
		Village      string `json:"village"`
	} `json:"address"`
}

func NewNominatimProvider(baseURL, userAgent string, log *zap.Logger) *NominatimProvider {
	const timeout = 10
	return NewNominatimProviderWithClient(&http.Client{Timeout: timeout * time.Second}, baseURL, userAgent, log)
}

func NewNominatimProviderWithClient(client HTTPClient, baseURL, userAgent string, log *zap.Logger) *NominatimProvider {
	if baseURL == "" {
		baseURL = defaultNominatimURL
	}
	if userAgent == "" {
		userAgent = defaultNominatimUserAgent
	}
	return &NominatimProvider{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		log:       log,
	}
}

func (np *NominatimProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	reqURL, err := url.Parse(np.baseURL + "/reverse")
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("lat", fmt.Sprintf("%.6f", lat))
	query.Set("lon", fmt.Sprintf("%.6f", lon))
	query.Set("format", "jsonv2")
	query.Set("zoom", "10") // city level
	query.Set("addressdetails", "1")
	query.Set("accept-language", "en")
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", np.userAgent)

	resp, err := np.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute reverse geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		np.log.Warn("Nominatim API error", zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return "", fmt.Errorf("nominatim API returned status %d", resp.StatusCode)
	}

	var result nominatimReverseResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	if result.Error != "" {
		np.log.Debug("Nominatim found nothing", zap.String("error", result.Error))
		return "", ErrNoResult
	}

	for _, candidate := range []string{
		result.Address.City,
		result.Address.Town,
		result.Address.Municipality,
		result.Address.Village,
		result.Name,
	} {
		if name := strings.TrimSpace(candidate); name != "" {
			return name, nil
		}
	}

	return "", ErrNoResult
}
