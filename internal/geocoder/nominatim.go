// Package geocoder resolves geographic coordinates into display addresses
// via the Nominatim reverse-geocoding API.
//
// The client never fails its caller: any transport, status, or decode
// problem collapses into a human-readable fallback string so the order flow
// can proceed with a degraded address instead of aborting.
package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/m3rciful/aquabot/internal/config"
	"github.com/m3rciful/aquabot/internal/logger"
	"github.com/m3rciful/aquabot/internal/texts"
)

// Client performs reverse-geocoding lookups against a Nominatim endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	// Nominatim's usage policy caps anonymous clients at 1 rps.
	limiter *rate.Limiter
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
}

// New builds a client from configuration, applying sane defaults for
// zeroed fields.
func New(cfg config.GeocoderConfig) *Client {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 5
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          4,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
	}
}

// Resolve returns the display address for the given coordinates, or a
// fallback string when the lookup degrades. The flow stores whatever comes
// back here as the client address.
func (c *Client) Resolve(ctx context.Context, lat, lon float64) string {
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		logger.GEO.Warn("rate wait aborted",
			slog.String("event", "geo.reverse"),
			slog.String("err", err.Error()),
		)
		return texts.AddressRequestFailed
	}

	reqURL := fmt.Sprintf("%s/reverse?format=json&lat=%s&lon=%s",
		c.baseURL,
		url.QueryEscape(formatCoord(lat)),
		url.QueryEscape(formatCoord(lon)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		logger.GEO.Error("request build failed",
			slog.String("event", "geo.reverse"),
			slog.String("err", err.Error()),
		)
		return texts.AddressRequestFailed
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.GEO.Warn("reverse lookup failed",
			slog.String("event", "geo.reverse"),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
			slog.String("err", err.Error()),
		)
		return texts.AddressRequestFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.GEO.Warn("reverse lookup status",
			slog.String("event", "geo.reverse"),
			slog.Int("status_code", resp.StatusCode),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
		return texts.AddressRequestFailed
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		logger.GEO.Warn("reverse decode failed",
			slog.String("event", "geo.reverse"),
			slog.String("err", err.Error()),
		)
		return texts.AddressParseFailed
	}

	if body.DisplayName == "" {
		return texts.AddressNotFound
	}

	logger.GEO.Debug("address resolved",
		slog.String("event", "geo.reverse"),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return body.DisplayName
}

func formatCoord(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
