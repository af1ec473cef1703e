package site

import (
	"encoding/xml"
	"net/url"
	"sort"
	"strconv"

	"github.com/frontedward/dictator/internal/config"
)

// Sitemap output paths.
const (
	SitemapFile = "sitemap.xml"
	RobotsFile  = "robots.txt"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	XMLNS   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc        string `xml:"loc"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// Sitemap lists every page route as an absolute, percent-encoded URL under url + baseUrl.
// Duplicate routes are listed once, in sorted order.
func Sitemap(cfg *config.SiteConfig, routes []string) ([]byte, error) {
	freq, priority := config.DefaultChangeFreq, config.DefaultSitemapWeight
	if cfg.Classic != nil && cfg.Classic.Sitemap != nil {
		freq, priority = cfg.Classic.Sitemap.ChangeFreq, cfg.Classic.Sitemap.Priority
	}

	seen := map[string]bool{}
	us := urlSet{XMLNS: sitemapNS}
	sorted := append([]string(nil), routes...)
	sort.Strings(sorted)
	for _, route := range sorted {
		loc := cfg.AbsoluteURL((&url.URL{Path: route}).EscapedPath())
		if seen[loc] {
			continue
		}
		seen[loc] = true
		us.URLs = append(us.URLs, urlEntry{
			Loc:        loc,
			ChangeFreq: freq,
			Priority:   strconv.FormatFloat(priority, 'f', -1, 64),
		})
	}

	data, err := xml.MarshalIndent(us, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), data...), nil
}

// Robots allows every crawler and points to the sitemap.
func Robots(cfg *config.SiteConfig) []byte {
	return []byte("User-agent: *\nAllow: /\n\nSitemap: " + cfg.AbsoluteURL(SitemapFile) + "\n")
}
