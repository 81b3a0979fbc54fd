// Package model defines shared types for the proxy pipeline.
package model

import (
	"context"
	"net/http"
	"net/url"
)

// Kind classifies an upstream response.
type Kind int

const (
	// KindOther is any response that is neither a manifest nor a segment.
	KindOther Kind = iota
	// KindPlaylist is an HLS manifest (.m3u8).
	KindPlaylist
	// KindSegment is a binary media segment (.ts).
	KindSegment
)

// String returns a bounded label value for metrics and logs.
func (k Kind) String() string {
	switch k {
	case KindPlaylist:
		return "playlist"
	case KindSegment:
		return "segment"
	default:
		return "other"
	}
}

// FetchRequest is a validated request for one upstream fetch.
type FetchRequest struct {
	Ctx      context.Context
	Target   *url.URL
	Referrer string
}

// UpstreamResponse is the raw result of an upstream fetch. Body is fully
// buffered; FinalURL is the URL after redirects and is the base for
// manifest rewriting.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	FinalURL   *url.URL
	Body       []byte
}

// FetchResult is the assembled response to hand back to the client.
type FetchResult struct {
	StatusCode      int
	Kind            Kind
	ContentType     string
	CacheControl    string
	CDNCacheControl string
	Body            []byte
}
