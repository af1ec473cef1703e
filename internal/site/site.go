// Package site renders the HTML pages of the site from embedded templates:
// the landing page, doc pages, blog pages and the 404 page, all sharing one
// layout with the configured navbar and footer.
package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"path"
	"strings"
	"sync"

	"github.com/frontedward/dictator/internal/config"
	"github.com/frontedward/dictator/internal/docs"
	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
	"github.com/frontedward/dictator/internal/logfields"
	"github.com/frontedward/dictator/internal/search"
)

// Output paths of the theme files, relative to the site root.
const (
	ThemeStylesheet = "assets/css/dictator.css"
	ThemeScript     = "assets/js/dictator.js"
	CustomCSSFile   = "assets/css/custom.css"
	NotFoundFile    = "404.html"
)

const (
	kindLanding  = "landing"
	kindDoc      = "doc"
	kindBlogList = "bloglist"
	kindBlogPost = "blogpost"
	kindNotFound = "notfound"
	kindSearch   = "search"
)

var (
	//go:embed templates
	templateFS embed.FS

	//go:embed assets/dictator.css
	themeCSS []byte

	//go:embed assets/dictator.js
	themeJS []byte
)

var loadTemplates = sync.OnceValues(parseTemplates)

// parseTemplates clones the shared partials once per page kind, so every
// page template can define its own "content" block.
func parseTemplates() (map[string]*template.Template, error) {
	base, err := template.New("site").ParseFS(templateFS, "templates/partials/*.html")
	if err != nil {
		return nil, err
	}
	pages := map[string]*template.Template{}
	for _, kind := range []string{kindLanding, kindDoc, kindBlogList, kindBlogPost, kindNotFound, kindSearch} {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, "templates/pages/"+kind+".html"); err != nil {
			return nil, fmt.Errorf("parse %s template: %w", kind, err)
		}
		pages[kind] = t
	}
	return pages, nil
}

// ThemeAssets returns the built-in theme files keyed by output path.
func ThemeAssets() map[string][]byte {
	return map[string][]byte{
		ThemeStylesheet: themeCSS,
		ThemeScript:     themeJS,
	}
}

// Options carries the build products the page chrome depends on.
type Options struct {
	// Docs resolves navbar doc items and doc sidebars. Without it, doc items
	// link to routeBasePath/docId.
	Docs *docs.Set
	// Search adds the DocSearch head tags, container and script.
	Search *search.DocSearch
	// Head is appended to every <head>, e.g. the PWA tags.
	Head template.HTML
	// Scripts are site-relative script paths loaded at the end of every page.
	Scripts []string
	// FeedRoute is the blog feed route advertised in <head>.
	FeedRoute string
}

// Renderer renders pages for one configuration and one build.
type Renderer struct {
	cfg    *config.SiteConfig
	docs   *docs.Set
	search *search.DocSearch
	pages  map[string]*template.Template
	chrome *chrome
}

type chrome struct {
	Favicon     string
	Image       string
	FeedURL     string
	FeedTitle   string
	Stylesheets []string
	Head        template.HTML
	Scripts     template.HTML
	Navbar      navbarView
	Footer      *footerView
}

type page struct {
	Lang        string
	Title       string
	Description string
	Canonical   string
	Kind        string
	Chrome      *chrome
	Body        any
}

// New prepares a renderer. A navbar doc item naming an unknown doc is a fatal build error.
func New(cfg *config.SiteConfig, opts Options) (*Renderer, error) {
	pages, err := loadTemplates()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to parse site templates").Fatal().Build()
	}
	r := &Renderer{cfg: cfg, docs: opts.Docs, search: opts.Search, pages: pages}

	nav, err := r.navbar(opts.Search != nil)
	if err != nil {
		return nil, err
	}
	c := &chrome{
		Navbar:      nav,
		Footer:      r.footer(),
		Stylesheets: []string{cfg.WithBaseURL(ThemeStylesheet)},
	}
	if cfg.Favicon != "" {
		c.Favicon = cfg.WithBaseURL(cfg.Favicon)
	}
	if cfg.ThemeConfig.Image != "" {
		c.Image = cfg.AbsoluteURL(cfg.ThemeConfig.Image)
	}
	if opts.FeedRoute != "" {
		c.FeedURL = cfg.WithBaseURL(opts.FeedRoute)
		c.FeedTitle = cfg.Title + " Blog RSS Feed"
	}
	if cfg.Classic != nil && cfg.Classic.Theme.CustomCSS != "" {
		c.Stylesheets = append(c.Stylesheets, cfg.WithBaseURL(CustomCSSFile))
	}

	var head strings.Builder
	head.WriteString(string(opts.Search.Head()))
	if opts.Head != "" {
		if head.Len() > 0 {
			head.WriteByte('\n')
		}
		head.WriteString(string(opts.Head))
	}
	c.Head = template.HTML(head.String()) //nolint:gosec // generated from escaped config values

	var scripts strings.Builder
	for _, src := range append([]string{ThemeScript}, opts.Scripts...) {
		fmt.Fprintf(&scripts, "<script src=\"%s\" defer></script>\n", template.HTMLEscapeString(cfg.WithBaseURL(src)))
	}
	searchScript, err := opts.Search.Script()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryBuild, "failed to render search script").Build()
	}
	scripts.WriteString(string(searchScript))
	c.Scripts = template.HTML(scripts.String()) //nolint:gosec // escaped above
	r.chrome = c
	return r, nil
}

// href maps a site route (without baseUrl) to a link.
func (r *Renderer) href(route string) string {
	return r.cfg.WithBaseURL(route)
}

// linkHref resolves a config link given as an external href or a site-relative to.
func (r *Renderer) linkHref(href, to string) (string, bool) {
	if to != "" {
		return r.cfg.WithBaseURL(to), false
	}
	return href, config.HasProtocol(href)
}

func (r *Renderer) docRoute(id string) (string, bool) {
	if r.docs != nil {
		d, ok := r.docs.ByID(id)
		if !ok {
			return "", false
		}
		return d.Route, true
	}
	base := config.DefaultDocsPath
	if r.cfg.DocsEnabled() {
		base = r.cfg.Classic.Docs.RouteBasePath
	}
	return path.Join("/", base, strings.Trim(id, "/")), true
}

func (r *Renderer) pageTitle(title string) string {
	if title == "" || title == r.cfg.Title {
		return r.cfg.Title
	}
	return title + " | " + r.cfg.Title
}

func (r *Renderer) render(p page) ([]byte, error) {
	t, ok := r.pages[p.Kind]
	if !ok {
		return nil, ferrors.InternalError("unknown page template").WithContext("template", p.Kind).Build()
	}
	p.Lang = r.cfg.I18n.DefaultLocale
	p.Chrome = r.chrome
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryBuild, "failed to render page").
			WithContext("template", p.Kind).
			WithContext(logfields.KeyRoute, p.Canonical).
			Build()
	}
	return buf.Bytes(), nil
}

// NotFoundPage renders 404.html.
func (r *Renderer) NotFoundPage() ([]byte, error) {
	return r.render(page{Kind: kindNotFound, Title: r.pageTitle("Page Not Found")})
}
