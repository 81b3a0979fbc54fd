// Package service implements the fetch-and-rewrite pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"hlsgate/internal/client"
	"hlsgate/internal/metrics"
	"hlsgate/internal/model"
)

// ErrInvalidTarget is returned when the requested URL is not an absolute
// HTTP(S)-style URL. No outbound call is made in that case.
var ErrInvalidTarget = errors.New("target is not an absolute URL")

// Pipeline runs one fetch end to end: validate the target, synthesize
// outbound headers, fetch, classify, rewrite manifests, and assemble the
// outgoing response. Every invocation works on fresh per-call data; the
// pipeline itself holds no mutable state.
type Pipeline struct {
	fetcher *client.Fetcher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewPipeline creates a Pipeline. The metrics parameter is optional; pass nil
// to disable classification counters.
func NewPipeline(f *client.Fetcher, logger *slog.Logger, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		fetcher: f,
		logger:  logger.With("component", "pipeline"),
		metrics: m,
	}
}

// Fetch proxies one target URL. rawURL must be an absolute URL; referrer may
// be empty, in which case the target's origin is used. The returned result
// mirrors the upstream status code verbatim, including non-2xx codes.
func (p *Pipeline) Fetch(ctx context.Context, rawURL, referrer string) (*model.FetchResult, error) {
	target, err := ParseTarget(rawURL)
	if err != nil {
		return nil, err
	}
	if referrer == "" {
		referrer = DefaultReferrer(target)
	}

	fr := &model.FetchRequest{
		Ctx:      ctx,
		Target:   target,
		Referrer: referrer,
	}

	resp, err := p.fetcher.Fetch(fr, BuildHeaders(target, referrer))
	if err != nil {
		return nil, fmt.Errorf("upstream fetch: %w", err)
	}

	// Origins that expire stream sources answer 410; dump the headers so the
	// expiry can be diagnosed from logs.
	if resp.StatusCode == http.StatusGone {
		p.logger.Warn("upstream returned 410 Gone",
			"url", target.String(),
			"headers", fmt.Sprintf("%v", resp.Header),
		)
	}

	c := Classify(
		resp.Header.Get("Content-Type"),
		resp.Header.Get("Cache-Control"),
		resp.Header.Get("CDN-Cache-Control"),
		resp.FinalURL,
	)
	if p.metrics != nil {
		p.metrics.Classifications.WithLabelValues(c.Kind.String()).Inc()
	}

	body := resp.Body
	if c.Kind == model.KindPlaylist {
		body = []byte(RewritePlaylist(string(resp.Body), resp.FinalURL))
	}

	p.logger.Debug("fetched",
		"url", target.String(),
		"status", resp.StatusCode,
		"kind", c.Kind.String(),
		"bytes", len(body),
	)

	return &model.FetchResult{
		StatusCode:      resp.StatusCode,
		Kind:            c.Kind,
		ContentType:     c.ContentType,
		CacheControl:    c.CacheControl,
		CDNCacheControl: c.CDNCacheControl,
		Body:            body,
	}, nil
}

// ParseTarget parses rawURL and rejects anything that is not absolute with a
// host component.
func ParseTarget(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, rawURL)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, rawURL)
	}
	return u, nil
}
