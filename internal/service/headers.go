package service

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

const userAgent = "Mozilla/5.0 (compatible; hlsgate/1.0)"

// segmentSuffix is the media segment file extension. Some origins refuse to
// serve segments without a Range header.
const segmentSuffix = ".ts"

// BuildHeaders synthesizes the outbound header set for a fetch. It is a pure
// function of the target URL and referrer: User-Agent, Referer and Accept are
// always present, Range is added for segment paths, and Origin is added when
// the target host is a domain name rather than an IP literal.
func BuildHeaders(target *url.URL, referrer string) http.Header {
	h := make(http.Header)
	h.Set("User-Agent", userAgent)
	h.Set("Referer", referrer)
	h.Set("Accept", "*/*")

	if strings.HasSuffix(target.Path, segmentSuffix) {
		h.Set("Range", "bytes=0-")
	}

	if d := domain(target); d != "" {
		h.Set("Origin", "https://"+d)
	}

	return h
}

// DefaultReferrer returns the target's origin (scheme and host, no path),
// used when the caller supplies no referrer.
func DefaultReferrer(target *url.URL) string {
	return target.Scheme + "://" + target.Host
}

// domain returns the target's hostname when it is a resolvable domain name,
// or empty for IP literals and hostless URLs.
func domain(target *url.URL) string {
	host := target.Hostname()
	if host == "" || net.ParseIP(host) != nil {
		return ""
	}
	return host
}
