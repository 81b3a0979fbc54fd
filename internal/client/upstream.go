// Package client provides the upstream HTTP fetcher.
package client

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"hlsgate/internal/config"
	"hlsgate/internal/metrics"
	"hlsgate/internal/model"
)

// ErrBodyRead marks a fetch that reached the origin but whose body could not
// be read in full. Callers treat it as a response-assembly failure rather
// than an upstream one.
var ErrBodyRead = errors.New("read upstream body")

// Fetcher issues GET requests to origin servers.
type Fetcher struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewFetcher creates a Fetcher with connection pooling, a total request
// timeout, and a bounded redirect policy. Exceeding the redirect cap fails
// the fetch. The metrics parameter is optional; pass nil to disable upstream
// metrics recording.
func NewFetcher(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Fetcher {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Fetch.IdleConnections,
		MaxIdleConnsPerHost: cfg.Fetch.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	maxRedirects := cfg.Fetch.MaxRedirects

	return &Fetcher{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		logger:  logger.With("component", "fetcher"),
		metrics: m,
	}
}

// Fetch issues a GET for the request's target with the given headers and
// returns the fully buffered response. Redirects are followed transparently;
// FinalURL on the result is the post-redirect URL. The request context
// controls the lifetime of the fetch: when it is canceled (e.g. client
// disconnect), the upstream request is also canceled.
func (f *Fetcher) Fetch(fr *model.FetchRequest, header http.Header) (*model.UpstreamResponse, error) {
	req, err := http.NewRequestWithContext(fr.Ctx, http.MethodGet, fr.Target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header = header

	f.logger.Debug("upstream request",
		"host", fr.Target.Host,
		"path", fr.Target.Path,
	)

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	duration := time.Since(start).Seconds()

	if err != nil {
		if f.metrics != nil {
			f.metrics.UpstreamDuration.WithLabelValues(http.MethodGet).Observe(duration)
		}
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if f.metrics != nil {
		status := strconv.Itoa(resp.StatusCode)
		f.metrics.UpstreamDuration.WithLabelValues(http.MethodGet).Observe(duration)
		f.metrics.UpstreamResponses.WithLabelValues(http.MethodGet, status).Inc()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBodyRead, err)
	}

	return &model.UpstreamResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		FinalURL:   resp.Request.URL,
		Body:       body,
	}, nil
}
