package site

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/frontedward/dictator/internal/blog"
	"github.com/frontedward/dictator/internal/config"
	"github.com/frontedward/dictator/internal/docs"
	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
	"github.com/frontedward/dictator/internal/git"
	"github.com/frontedward/dictator/internal/linkverify"
	"github.com/frontedward/dictator/internal/markdown"
	"github.com/frontedward/dictator/internal/search"
	helpers "github.com/frontedward/dictator/internal/testutil/testutils"
)

const siteConfig = `
title: Dictator
url: https://dictator.example.com
baseUrl: /dictator/
favicon: img/favicon.ico
presets:
  - name: classic
    options:
      docs:
        editUrl: https://github.com/frontedward/dictator/edit/main/
        showLastUpdateAuthor: true
        showLastUpdateTime: true
      blog:
        blogTitle: Блог
        showReadingTime: true
      theme:
        customCss: src/css/custom.css
themeConfig:
  hideableSidebar: true
  navbar:
    title: Dictator
    logo:
      alt: Logo
      src: img/logo.png
    items:
      - type: doc
        docId: guide/intro-guide
        label: Руководства
      - href: https://github.com/frontedward
        label: GitHub
        position: right
      - to: blog
        label: Блог
      - type: doc
        docId: other/intro-other
        label: Другое
        position: right
  footer:
    style: dark
    links:
      - title: Docs
        items:
          - label: Guide
            to: docs/guide/intro-guide
          - html: '<a href="https://www.netlify.com">Netlify</a>'
    copyright: Copyright © 2022 Dictator
`

func parseConfig(t *testing.T, data string) *config.SiteConfig {
	t.Helper()
	cfg, _, err := config.Parse([]byte(data))
	require.NoError(t, err)
	return cfg
}

// navbarLabels returns the texts of the navbar item links in document order.
func navbarLabels(t *testing.T, html []byte) []string {
	t.Helper()
	start := strings.Index(string(html), `<nav class="navbar"`)
	require.GreaterOrEqual(t, start, 0)
	end := strings.Index(string(html[start:]), "</nav>")
	require.Greater(t, end, 0)
	links, err := linkverify.ExtractLinks(html[start : start+end])
	require.NoError(t, err)
	var out []string
	for _, l := range links[1:] { // brand
		if l.Tag == "a" {
			out = append(out, l.Text)
		}
	}
	return out
}

func TestNavbar_KeepsDeclaredOrderPerSide(t *testing.T) {
	cfg := parseConfig(t, siteConfig)
	r, err := New(cfg, Options{})
	require.NoError(t, err)

	nav := r.chrome.Navbar
	require.Equal(t, "/dictator/", nav.Home)
	require.Equal(t, "/dictator/img/logo.png", nav.LogoSrc)
	require.Equal(t, []navLink{
		{Label: "Руководства", Href: "/dictator/docs/guide/intro-guide"},
		{Label: "Блог", Href: "/dictator/blog"},
	}, nav.Left)
	require.Equal(t, []navLink{
		{Label: "GitHub", Href: "https://github.com/frontedward", External: true},
		{Label: "Другое", Href: "/dictator/docs/other/intro-other"},
	}, nav.Right)

	html, err := r.NotFoundPage()
	require.NoError(t, err)
	require.Equal(t, []string{"Руководства", "Блог", "GitHub", "Другое"}, navbarLabels(t, html))
}

func TestNavbar_UnknownDocIsFatalBuildError(t *testing.T) {
	cfg := parseConfig(t, siteConfig)
	root := t.TempDir()
	helpers.WriteTree(t, root, map[string]string{"guide/intro-guide.md": "# Guide\n"})
	set, err := (&docs.Loader{Root: root, RouteBasePath: "docs"}).Load()
	require.NoError(t, err)

	_, err = New(cfg, Options{Docs: set})
	require.Error(t, err)
	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, ferrors.CategoryBuild, ce.Category())
	require.True(t, ce.IsFatal())
	id, _ := ce.Context().GetString("doc_id")
	require.Equal(t, "other/intro-other", id)
}

func TestChrome_HeadFooterAndScripts(t *testing.T) {
	cfg := parseConfig(t, siteConfig+`  algolia:
    appId: APP
    apiKey: key
    indexName: dictator
`)
	r, err := New(cfg, Options{
		Search:    search.New(cfg),
		Head:      `<meta name="theme-color" content="#2e8555">`,
		Scripts:   []string{"registerSW.js"},
		FeedRoute: "/blog/rss.xml",
	})
	require.NoError(t, err)
	out, err := r.NotFoundPage()
	require.NoError(t, err)
	html := string(out)

	require.Contains(t, html, `<html lang="en">`)
	require.Contains(t, html, `<title>Page Not Found | Dictator</title>`)
	require.Contains(t, html, `<link rel="icon" href="/dictator/img/favicon.ico">`)
	require.Contains(t, html, `<link rel="stylesheet" href="/dictator/assets/css/dictator.css">`)
	require.Contains(t, html, `<link rel="stylesheet" href="/dictator/assets/css/custom.css">`)
	require.Contains(t, html, `href="/dictator/blog/rss.xml"`)
	require.Contains(t, html, `<meta name="theme-color" content="#2e8555">`)
	require.Contains(t, html, search.StylesheetURL)
	require.Contains(t, html, `<div id="docsearch"></div>`)
	require.Contains(t, html, `<script src="/dictator/registerSW.js" defer></script>`)
	require.Contains(t, html, `<script src="/dictator/assets/js/dictator.js" defer></script>`)
	require.Contains(t, html, `footer footer--dark`)
	require.Contains(t, html, `<a class="footer__link-item" href="/dictator/docs/guide/intro-guide">Guide</a>`)
	require.Contains(t, html, `<a href="https://www.netlify.com">Netlify</a>`)
	require.Contains(t, html, `Copyright © 2022 Dictator`)
}

func loadDocs(t *testing.T) (*docs.Set, string) {
	t.Helper()
	root := t.TempDir()
	helpers.WriteTree(t, root, map[string]string{
		"guide/intro-guide.md":       "---\nsidebar_position: 1\ndescription: Введение\n---\nNo heading here.\n\n## Установка\n\n### Шаги\n",
		"guide/react.md":             "---\nsidebar_position: 2\n---\n# React\n",
		"other/intro-other.md":       "# Другое\n",
		"other/tools/git.md":         "# Git\n",
		"other/tools/_category_.yml": "label: Инструменты\n",
	})
	set, err := (&docs.Loader{Root: root, RouteBasePath: "docs"}).Load()
	require.NoError(t, err)
	return set, root
}

func TestDocPage(t *testing.T) {
	cfg := parseConfig(t, siteConfig)
	set, _ := loadDocs(t)
	r, err := New(cfg, Options{Docs: set})
	require.NoError(t, err)

	d, ok := set.ByID("guide/intro-guide")
	require.True(t, ok)
	d.LastUpdate = &git.Update{Time: time.Date(2022, 5, 1, 12, 0, 0, 0, time.UTC), Author: "edward"}
	res, err := markdown.NewRenderer().Render(d.Body(), nil)
	require.NoError(t, err)

	out, err := r.DocPage(d, res)
	require.NoError(t, err)
	html := string(out)

	require.Contains(t, html, `<title>intro-guide | Dictator</title>`)
	require.Contains(t, html, `<meta name="description" content="Введение">`)
	require.Contains(t, html, `<h1>intro-guide</h1>`)
	require.Contains(t, html, `class="sidebar sidebar--hideable"`)
	require.Contains(t, html, `<a class="menu__link menu__link--active" href="/dictator/docs/guide/intro-guide" aria-current="page">`)
	require.Contains(t, html, `>Установка</a></li>`)
	require.Contains(t, html, `table-of-contents__item--h3`)
	require.Contains(t, html, `href="https://github.com/frontedward/dictator/edit/main/docs/guide/intro-guide.md"`)
	require.Contains(t, html, `Last updated on <time datetime="2022-05-01T12:00:00Z">May 1, 2022</time> by <b>edward</b>`)
	require.Contains(t, html, `pagination-nav__link--next" href="/dictator/docs/guide/react"`)
	require.Contains(t, html, `<span class="breadcrumbs__link">Guide</span>`)
	require.Contains(t, html, `<span class="breadcrumbs__link">intro-guide</span>`)
}

func TestDocPage_CategoryOpenOnlyAroundCurrentDoc(t *testing.T) {
	cfg := parseConfig(t, siteConfig)
	set, _ := loadDocs(t)
	r, err := New(cfg, Options{Docs: set})
	require.NoError(t, err)

	gitDoc, _ := set.ByID("other/tools/git")
	view := r.sidebar(set.SidebarFor(gitDoc), gitDoc)
	require.NotNil(t, view)

	var labels []string
	open := map[string]bool{}
	var walk func(items []menuItem)
	walk = func(items []menuItem) {
		for _, it := range items {
			if it.Category {
				labels = append(labels, it.Label)
				open[it.Label] = !it.Collapsed
				walk(it.Items)
			}
		}
	}
	walk(view.Items)
	require.Equal(t, []string{"Guide", "Other", "Инструменты"}, labels)
	require.False(t, open["Guide"])
	require.True(t, open["Other"])
	require.True(t, open["Инструменты"])

	require.Equal(t, []crumb{
		{Label: "Home", Href: "/dictator/"},
		{Label: "Other"},
		{Label: "Инструменты"},
		{Label: "Git"},
	}, r.breadcrumbs(set.SidebarFor(gitDoc), gitDoc))
}

func TestBlogPages(t *testing.T) {
	cfg := parseConfig(t, siteConfig)
	root := t.TempDir()
	helpers.WriteTree(t, root, map[string]string{
		"2022-03-14-hello.md": "---\ntitle: Hello\nauthors: [edward]\ntags: [react]\n---\nIntro\n\n<!--truncate-->\n\nRest\n",
		"2022-04-01-next.md":  "---\ntitle: Next\n---\nShort\n",
	})
	b, err := (&blog.Loader{Root: root, RouteBasePath: "blog", PostsPerPage: 1,
		Now: func() time.Time { return time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC) }}).Load()
	require.NoError(t, err)
	for _, p := range b.Posts {
		p.HTML = "<p>full</p>"
		p.SummaryHTML = "<p>summary</p>"
	}

	r, err := New(cfg, Options{})
	require.NoError(t, err)

	first, err := r.BlogListPage(b, b.Pages[0])
	require.NoError(t, err)
	require.Contains(t, string(first), `<h1>Блог</h1>`)
	require.Contains(t, string(first), `<a href="/dictator/blog/2022/04/01/next">Next</a>`)
	require.Contains(t, string(first), `href="/dictator/blog/page/2"`)
	require.Contains(t, string(first), `<p>summary</p>`)
	require.Contains(t, string(first), `1 min read`)

	second, err := r.BlogListPage(b, b.Pages[1])
	require.NoError(t, err)
	require.Contains(t, string(second), `<title>Блог - Page 2 | Dictator</title>`)
	require.NotContains(t, string(second), `<h1>Блог</h1>`)
	require.Contains(t, string(second), `Read more`)

	hello, _ := b.BySource("2022-03-14-hello.md")
	post, err := r.BlogPostPage(b, hello)
	require.NoError(t, err)
	html := string(post)
	require.Contains(t, html, `<h1 class="blog-post__title">Hello</h1>`)
	require.Contains(t, html, `<p>full</p>`)
	require.Contains(t, html, `<li class="tag">react</li>`)
	require.Contains(t, html, `<span class="blog-post__author">edward</span>`)
	require.Contains(t, html, `Newer post`)
	require.NotContains(t, html, `Older post`)
}

func TestThemeAssets(t *testing.T) {
	assets := ThemeAssets()
	require.Contains(t, assets, ThemeStylesheet)
	require.Contains(t, assets, ThemeScript)
	require.NotEmpty(t, assets[ThemeStylesheet])
}

func TestSearchPage(t *testing.T) {
	cfg := parseConfig(t, siteConfig+`  algolia:
    appId: APP
    apiKey: key
    indexName: dictator
    contextualSearch: true
`)
	r, err := New(cfg, Options{Search: search.New(cfg)})
	require.NoError(t, err)
	out, err := r.SearchPage()
	require.NoError(t, err)
	html := string(out)

	require.Contains(t, html, `<title>Search | Dictator</title>`)
	require.Contains(t, html, `<link rel="canonical" href="https://dictator.example.com/dictator/search">`)
	require.Contains(t, html, `action="/dictator/search"`)
	require.Contains(t, html, `name="q"`)
	require.Contains(t, html, `data-endpoint="https://APP-dsn.algolia.net/1/indexes/dictator/query"`)
	require.Contains(t, html, `data-facet-filters="language:en,docusaurus_tag:default"`)

	plain, err := New(cfg, Options{})
	require.NoError(t, err)
	_, err = plain.SearchPage()
	require.Error(t, err)
}
