// Package markdown renders documentation and blog sources to HTML with goldmark.
package markdown

import (
	"bytes"
	"html/template"
	"net/url"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// TruncateMarker separates a blog post summary from the rest of the post.
const TruncateMarker = "<!--truncate-->"

// LinkResolver maps a relative link destination found in a source file to its published URL.
// markdownFile is true when the destination names a .md/.mdx file.
type LinkResolver interface {
	ResolveLink(dest string, markdownFile bool) (string, bool)
}

// Heading is an h2/h3 entry of the table of contents.
type Heading struct {
	Level int
	ID    string
	Text  string
}

// Result is the outcome of rendering one source.
type Result struct {
	HTML     template.HTML
	Title    string // text of the first h1, if any
	HasH1    bool
	Headings []Heading
	Words    int
	// BrokenMarkdownLinks lists .md/.mdx destinations the resolver could not map.
	BrokenMarkdownLinks []string
}

// Renderer wraps a configured goldmark instance.
type Renderer struct {
	md goldmark.Markdown
}

var (
	resolverKey = parser.NewContextKey()
	brokenKey   = parser.NewContextKey()
)

// NewRenderer constructs a GFM renderer with heading ids and link rewriting.
func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithHeadingAttribute(),
			parser.WithASTTransformers(util.Prioritized(&linkTransformer{}, 100)),
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Renderer{md: md}
}

// Render converts src to HTML. resolver may be nil, in which case links are left untouched.
func (r *Renderer) Render(src []byte, resolver LinkResolver) (*Result, error) {
	pc := parser.NewContext(parser.WithIDs(newSlugIDs()))
	if resolver != nil {
		pc.Set(resolverKey, resolver)
	}
	doc := r.md.Parser().Parse(text.NewReader(src), parser.WithContext(pc))

	res := &Result{}
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Heading:
			txt := nodeText(node, src)
			id := ""
			if v, ok := node.AttributeString("id"); ok {
				if b, ok := v.([]byte); ok {
					id = string(b)
				}
			}
			switch node.Level {
			case 1:
				if !res.HasH1 {
					res.HasH1 = true
					res.Title = txt
				}
			case 2, 3:
				res.Headings = append(res.Headings, Heading{Level: node.Level, ID: id, Text: txt})
			}
			return gmast.WalkSkipChildren, nil
		case *gmast.Text:
			res.Words += len(strings.Fields(string(node.Segment.Value(src))))
		}
		return gmast.WalkContinue, nil
	})
	if broken, ok := pc.Get(brokenKey).(*[]string); ok {
		res.BrokenMarkdownLinks = *broken
	}

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, err
	}
	res.HTML = template.HTML(buf.String()) //nolint:gosec // trusted site sources
	return res, nil
}

// SplitSummary returns the part of src before the truncate marker, and whether one was found.
func SplitSummary(src []byte) ([]byte, bool) {
	idx := bytes.Index(src, []byte(TruncateMarker))
	if idx < 0 {
		return src, false
	}
	return src[:idx], true
}

// IsMarkdownFile reports whether a link path names a markdown source.
func IsMarkdownFile(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return ext == ".md" || ext == ".mdx"
}

// linkTransformer rewrites relative link and image destinations through the LinkResolver.
type linkTransformer struct{}

func (t *linkTransformer) Transform(doc *gmast.Document, _ text.Reader, pc parser.Context) {
	resolver, ok := pc.Get(resolverKey).(LinkResolver)
	if !ok {
		return
	}
	var broken []string
	rewrite := func(dest []byte) ([]byte, bool) {
		d := string(dest)
		if d == "" || strings.HasPrefix(d, "#") || hasScheme(d) {
			return nil, false
		}
		p, suffix := splitSuffix(d)
		if unescaped, err := url.PathUnescape(p); err == nil {
			p = unescaped
		}
		md := IsMarkdownFile(p)
		resolved, ok := resolver.ResolveLink(p, md)
		if !ok {
			if md {
				broken = append(broken, d)
			}
			return nil, false
		}
		return []byte(resolved + suffix), true
	}
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			if v, ok := rewrite(node.Destination); ok {
				node.Destination = v
			}
		case *gmast.Image:
			if v, ok := rewrite(node.Destination); ok {
				node.Destination = v
			}
		}
		return gmast.WalkContinue, nil
	})
	if len(broken) > 0 {
		pc.Set(brokenKey, &broken)
	}
}

func hasScheme(d string) bool {
	if strings.HasPrefix(d, "//") {
		return true
	}
	u, err := url.Parse(d)
	return err == nil && u.Scheme != ""
}

// splitSuffix separates a path from its ?query / #fragment suffix.
func splitSuffix(d string) (string, string) {
	if i := strings.IndexAny(d, "?#"); i >= 0 {
		return d[:i], d[i:]
	}
	return d, ""
}

func nodeText(n gmast.Node, src []byte) string {
	var b strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *gmast.String:
			b.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
