package config

import (
	"regexp"
	"strings"
)

var protocolPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z\d+.-]*:`)

// HasProtocol reports whether u carries a scheme (http:, mailto:, ...) or is protocol-relative.
func HasProtocol(u string) bool {
	return protocolPattern.MatchString(u) || strings.HasPrefix(u, "//")
}

// WithBaseURL composes a site-relative path with baseUrl.
//
// Fragments and URLs with a protocol are returned unchanged, as are paths that
// already start with baseUrl. Everything else is joined onto baseUrl.
func (c *SiteConfig) WithBaseURL(p string) string {
	if p == "" || strings.HasPrefix(p, "#") || HasProtocol(p) {
		return p
	}
	if p == strings.TrimSuffix(c.BaseURL, "/") {
		return c.BaseURL
	}
	if strings.HasPrefix(p, c.BaseURL) {
		return p
	}
	return c.BaseURL + strings.TrimPrefix(p, "/")
}

// AbsoluteURL is WithBaseURL prefixed with the site url.
func (c *SiteConfig) AbsoluteURL(p string) string {
	rel := c.WithBaseURL(p)
	if rel == "" {
		rel = c.BaseURL
	}
	if HasProtocol(rel) {
		return rel
	}
	return strings.TrimSuffix(c.URL, "/") + rel
}

// DocsEnabled reports whether the docs plugin of the classic preset is active.
func (c *SiteConfig) DocsEnabled() bool { return c.Classic != nil && c.Classic.Docs != nil }

// BlogEnabled reports whether the blog plugin of the classic preset is active.
func (c *SiteConfig) BlogEnabled() bool { return c.Classic != nil && c.Classic.Blog != nil }
