package blog

import (
	"encoding/xml"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/frontedward/dictator/internal/config"
)

// FeedFile is the feed location relative to the blog route base.
const FeedFile = "rss.xml"

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Generator     string    `xml:"generator"`
	Copyright     string    `xml:"copyright,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        string   `xml:"guid"`
	PubDate     string   `xml:"pubDate"`
	Description string   `xml:"description,omitempty"`
	Author      string   `xml:"author,omitempty"`
	Categories  []string `xml:"category"`
}

// FeedRoute returns the site route of the RSS feed.
func FeedRoute(cfg *config.SiteConfig) string {
	return path.Join("/", cfg.Classic.Blog.RouteBasePath, FeedFile)
}

// Feed renders the RSS 2.0 document for the published posts. Item
// descriptions carry the rendered summary HTML.
func Feed(cfg *config.SiteConfig, b *Blog) ([]byte, error) {
	opts := cfg.Classic.Blog
	title := cfg.Title + " Blog"
	description := opts.BlogDescription
	if description == "" {
		description = title
	}
	ch := rssChannel{
		Title:       title,
		Link:        cfg.AbsoluteURL(opts.RouteBasePath),
		Description: description,
		Language:    cfg.I18n.DefaultLocale,
		Generator:   "dictator",
	}
	if cfg.ThemeConfig.Footer != nil {
		ch.Copyright = cfg.ThemeConfig.Footer.Copyright
	}
	if len(b.Posts) > 0 {
		ch.LastBuildDate = b.Posts[0].Date.UTC().Format(time.RFC1123Z)
	}
	for _, p := range b.Posts {
		link := cfg.AbsoluteURL(p.Route)
		item := rssItem{
			Title:       p.Title,
			Link:        link,
			GUID:        link,
			PubDate:     p.Date.UTC().Format(time.RFC1123Z),
			Description: strings.TrimSpace(string(p.SummaryHTML)),
			Author:      strings.Join(p.Authors, ", "),
			Categories:  p.Tags,
		}
		if item.Description == "" {
			item.Description = p.Description
		}
		ch.Items = append(ch.Items, item)
	}

	data, err := xml.MarshalIndent(rssDoc{Version: "2.0", Channel: ch}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode rss feed: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}
