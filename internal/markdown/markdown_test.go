package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type mapResolver map[string]string

func (m mapResolver) ResolveLink(dest string, _ bool) (string, bool) {
	v, ok := m[dest]
	return v, ok
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Что такое React?":     "что-такое-react",
		"Hello World":          "hello-world",
		"  Trim me  ":          "trim-me",
		"Node.js & npm":        "nodejs--npm",
		"snake_case-and-dash":  "snake_case-and-dash",
		"ES2015 (ES6) Modules": "es2015-es6-modules",
	}
	for in, want := range cases {
		require.Equal(t, want, Slugify(in), in)
	}
}

func TestSlugIDs_Dedupe(t *testing.T) {
	ids := newSlugIDs()
	require.Equal(t, "intro", string(ids.Generate([]byte("Intro"), 0)))
	require.Equal(t, "intro-1", string(ids.Generate([]byte("Intro"), 0)))
	require.Equal(t, "intro-2", string(ids.Generate([]byte("Intro"), 0)))
	require.Equal(t, "heading", string(ids.Generate([]byte("?!"), 0)))
}

func TestRender_TitleAndHeadings(t *testing.T) {
	r := NewRenderer()
	res, err := r.Render([]byte("# Введение\n\n## Что такое React?\n\ntext here\n\n### Details\n\n## Что такое React?\n"), nil)
	require.NoError(t, err)
	require.True(t, res.HasH1)
	require.Equal(t, "Введение", res.Title)
	require.Equal(t, []Heading{
		{Level: 2, ID: "что-такое-react", Text: "Что такое React?"},
		{Level: 3, ID: "details", Text: "Details"},
		{Level: 2, ID: "что-такое-react-1", Text: "Что такое React?"},
	}, res.Headings)
	require.Contains(t, string(res.HTML), `<h2 id="что-такое-react">`)
	require.Equal(t, 2, res.Words)
}

func TestRender_CustomHeadingID(t *testing.T) {
	res, err := NewRenderer().Render([]byte("## Setup {#install}\n"), nil)
	require.NoError(t, err)
	require.False(t, res.HasH1)
	require.Equal(t, "install", res.Headings[0].ID)
}

func TestRender_GFMTable(t *testing.T) {
	res, err := NewRenderer().Render([]byte("| a | b |\n|---|---|\n| 1 | 2 |\n"), nil)
	require.NoError(t, err)
	require.Contains(t, string(res.HTML), "<table>")
}

func TestRender_RewritesResolvedLinks(t *testing.T) {
	resolver := mapResolver{
		"./next.md":    "/docs/guide/next",
		"../img/a.png": "/img/a.png",
	}

	src := "[next](./next.md#part) ![img](../img/a.png) [gone](./gone.md) [file](./missing.pdf) [ext](https://x.org) [anchor](#top)\n"
	res, err := NewRenderer().Render([]byte(src), resolver)
	require.NoError(t, err)

	html := string(res.HTML)
	require.Contains(t, html, `href="/docs/guide/next#part"`)
	require.Contains(t, html, `src="/img/a.png"`)
	require.Contains(t, html, `href="./gone.md"`)
	require.Contains(t, html, `href="./missing.pdf"`)
	require.Contains(t, html, `href="https://x.org"`)
	require.Contains(t, html, `href="#top"`)
	require.Equal(t, []string{"./gone.md"}, res.BrokenMarkdownLinks)
}

func TestRender_RawHTMLAllowed(t *testing.T) {
	res, err := NewRenderer().Render([]byte("<div class=\"note\">hi</div>\n"), nil)
	require.NoError(t, err)
	require.Contains(t, string(res.HTML), `<div class="note">hi</div>`)
}

func TestSplitSummary(t *testing.T) {
	summary, ok := SplitSummary([]byte("intro\n\n<!--truncate-->\n\nrest"))
	require.True(t, ok)
	require.Equal(t, "intro\n\n", string(summary))

	all, ok := SplitSummary([]byte("no marker"))
	require.False(t, ok)
	require.Equal(t, "no marker", string(all))
}

func TestIsMarkdownFile(t *testing.T) {
	require.True(t, IsMarkdownFile("a/b.md"))
	require.True(t, IsMarkdownFile("B.MDX"))
	require.False(t, IsMarkdownFile("a/b.png"))
	require.False(t, IsMarkdownFile("a/b"))
}
