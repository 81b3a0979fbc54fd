package service

import (
	"net/url"
	"strings"
)

// keyDirectivePrefix marks the one manifest directive that carries a resource
// reference, via its URI attribute.
const keyDirectivePrefix = "#EXT-X-KEY"

// fetchRoute is the proxy route rewritten references point back to.
const fetchRoute = "/fetch"

// RewritePlaylist rewrites an HLS manifest so every referenced resource
// routes back through this proxy. The manifest is treated as opaque text,
// line by line, preserving line order and count:
//
//   - blank lines and directives other than the key directive pass through
//     unchanged;
//   - on a key directive, only the quoted URI attribute value is replaced;
//   - any other line is a segment or sub-playlist reference and is replaced
//     wholesale.
//
// References are resolved against base (the post-redirect manifest URL); a
// reference that fails to resolve leaves its line untouched rather than
// failing the manifest.
func RewritePlaylist(body string, base *url.URL) string {
	lines := strings.Split(body, "\n")

	for i, line := range lines {
		if strings.HasPrefix(line, keyDirectivePrefix) {
			lines[i] = rewriteKeyLine(line, base)
			continue
		}
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		if proxied, ok := proxiedReference(strings.TrimSuffix(line, "\r"), base); ok {
			lines[i] = proxied
		}
	}

	return strings.Join(lines, "\n")
}

// rewriteKeyLine replaces the URI attribute value of a key directive with a
// proxied reference, leaving the rest of the directive intact. Lines without
// a URI attribute, or whose URI fails to resolve, are returned unchanged.
func rewriteKeyLine(line string, base *url.URL) string {
	start := strings.Index(line, `URI="`)
	if start < 0 {
		return line
	}
	uriStart := start + len(`URI="`)

	uriEnd := len(line)
	if end := strings.Index(line[uriStart:], `"`); end >= 0 {
		uriEnd = uriStart + end
	}
	keyURI := line[uriStart:uriEnd]
	if keyURI == "" {
		return line
	}

	proxied, ok := proxiedReference(keyURI, base)
	if !ok {
		return line
	}
	return strings.Replace(line, keyURI, proxied, 1)
}

// proxiedReference resolves ref against base and returns it as a proxied
// fetch URL with the resolved target percent-encoded as a single query value.
func proxiedReference(ref string, base *url.URL) (string, bool) {
	resolved, err := base.Parse(ref)
	if err != nil {
		return "", false
	}
	return fetchRoute + "?url=" + url.QueryEscape(resolved.String()), true
}
