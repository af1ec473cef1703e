package linkverify

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/frontedward/dictator/internal/foundation/errors"
)

// Link represents an extracted link from HTML content.
type Link struct {
	URL       string // The URL or path
	Text      string // Link text/title
	Tag       string // HTML tag (a, img, script, link, etc.)
	Attribute string // Attribute containing the link (href, src, etc.)
}

// ExtractLinks extracts all links from rendered HTML.
func ExtractLinks(content []byte) ([]*Link, error) {
	return ExtractLinksFromReader(bytes.NewReader(content))
}

// ExtractLinksFromReader extracts all links from an HTML reader.
func ExtractLinksFromReader(r io.Reader) ([]*Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to parse HTML").WithSeverity(errors.SeverityError).Build()
	}

	var links []*Link
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if l := elementLink(n); l != nil {
				links = append(links, l)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)
	return links, nil
}

// elementLink extracts the link carried by a single HTML element, if any.
func elementLink(n *html.Node) *Link {
	var attr, text string
	switch n.Data {
	case "a":
		attr, text = "href", extractText(n)
	case "link":
		attr, text = "href", getAttr(n, "rel")
	case "img":
		attr, text = "src", getAttr(n, "alt")
	case "script", "video", "audio", "source", "iframe":
		attr = "src"
	default:
		return nil
	}
	v := getAttr(n, attr)
	if v == "" {
		return nil
	}
	return &Link{URL: v, Text: text, Tag: n.Data, Attribute: attr}
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// extractText extracts text content from an HTML node and its children.
func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := extractText(c); t != "" {
			if text.Len() > 0 {
				text.WriteByte(' ')
			}
			text.WriteString(t)
		}
	}
	return text.String()
}

// ShouldVerifyLink reports whether a link targets something the site itself must provide.
// Anchors, special protocols and markdown source links are skipped; the latter are
// governed by the markdown link policy during rendering.
func ShouldVerifyLink(link *Link) bool {
	u := strings.TrimSpace(link.URL)
	if u == "" || strings.HasPrefix(u, "#") {
		return false
	}
	for _, p := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(u, p) {
			return false
		}
	}
	return !isMarkdownSource(u)
}

func isMarkdownSource(u string) bool {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	u = strings.ToLower(u)
	return strings.HasSuffix(u, ".md") || strings.HasSuffix(u, ".mdx")
}
