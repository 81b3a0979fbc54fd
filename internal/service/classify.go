package service

import (
	"net/url"
	"strings"

	"hlsgate/internal/model"
)

// Content types forced onto classified responses regardless of what the
// origin declared.
const (
	playlistContentType = "application/vnd.apple.mpegurl"
	segmentContentType  = "video/mp2t"
)

// Cache-control defaults applied when the origin sent none. Manifests are
// cached briefly (they change as the stream advances); segments and
// everything else are immutable for practical purposes and cached for 30 days.
const (
	playlistCacheControl    = "public, max-age=18000, stale-while-revalidate=300"
	playlistCDNCacheControl = "max-age=18000"
	defaultCacheControl     = "public, max-age=2592000, stale-while-revalidate=86400"
	defaultCDNCacheControl  = "max-age=2592000"
)

// Classification carries the derived kind and outgoing header values for an
// upstream response.
type Classification struct {
	Kind            model.Kind
	ContentType     string
	CacheControl    string
	CDNCacheControl string
}

// Classify decides what an upstream response is, based on its Content-Type
// header (case-insensitive substring match) and the final URL's path suffix,
// and derives the outgoing content-type and cache headers. Origin-supplied
// Cache-Control and CDN-Cache-Control values are reused verbatim; defaults
// apply independently per header.
func Classify(upstreamContentType string, cacheControl, cdnCacheControl string, finalURL *url.URL) Classification {
	ct := upstreamContentType
	if ct == "" {
		ct = "text/plain"
	}
	lower := strings.ToLower(ct)
	path := finalURL.Path

	c := Classification{
		Kind:            model.KindOther,
		ContentType:     ct,
		CacheControl:    defaultCacheControl,
		CDNCacheControl: defaultCDNCacheControl,
	}

	switch {
	case strings.Contains(lower, playlistContentType) || strings.HasSuffix(path, ".m3u8"):
		c.Kind = model.KindPlaylist
		c.ContentType = playlistContentType
		c.CacheControl = playlistCacheControl
		c.CDNCacheControl = playlistCDNCacheControl
	case strings.Contains(lower, segmentContentType) || strings.HasSuffix(path, segmentSuffix):
		c.Kind = model.KindSegment
		c.ContentType = segmentContentType
	}

	if cacheControl != "" {
		c.CacheControl = cacheControl
	}
	if cdnCacheControl != "" {
		c.CDNCacheControl = cdnCacheControl
	}

	return c
}
