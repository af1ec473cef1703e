package build

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/frontedward/dictator/internal/blog"
	"github.com/frontedward/dictator/internal/docs"
	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
	"github.com/frontedward/dictator/internal/git"
	"github.com/frontedward/dictator/internal/linkverify"
	"github.com/frontedward/dictator/internal/logfields"
	"github.com/frontedward/dictator/internal/observability"
	"github.com/frontedward/dictator/internal/pwa"
	"github.com/frontedward/dictator/internal/search"
	"github.com/frontedward/dictator/internal/site"
)

// StaticDir holds files copied verbatim to the site root.
const StaticDir = "static"

func (b *Builder) loadContent(ctx context.Context, st *state) error {
	cfg := b.cfg
	if cfg.DocsEnabled() {
		loader := docs.NewLoader(cfg, b.history(ctx, st))
		loader.IncludeDrafts = b.opts.IncludeDrafts
		set, err := loader.Load()
		if err != nil {
			return err
		}
		st.docs = set
	}
	if cfg.BlogEnabled() {
		loader := blog.NewLoader(cfg)
		loader.IncludeDrafts = b.opts.IncludeDrafts
		if b.opts.Now != nil {
			loader.Now = b.opts.Now
		}
		posts, err := loader.Load()
		if err != nil {
			return err
		}
		st.blog = posts
	}
	st.targets = collectTargets(cfg, st.docs, st.blog)
	st.digest = linkDigest(cfg.BaseURL, st.targets)

	st.search = search.New(cfg)
	opts := site.Options{Docs: st.docs, Search: st.search}
	if cfg.PWA != nil {
		opts.Head = pwa.HeadTags(cfg.PWA.PWAHead)
		opts.Scripts = []string{pwa.RegisterFile}
	}
	if st.blog != nil && cfg.Classic.Blog.FeedOptions.Type == "rss" {
		opts.FeedRoute = blog.FeedRoute(cfg)
	}
	r, err := site.New(cfg, opts)
	if err != nil {
		return err
	}
	st.renderer = r
	return nil
}

// history returns the configured git history, opening the repository of the
// site directory when last-update info is shown and none was given.
func (b *Builder) history(ctx context.Context, st *state) *git.History {
	opts := b.cfg.Classic.Docs
	if b.opts.History != nil || !(opts.ShowLastUpdateTime || opts.ShowLastUpdateAuthor) {
		return b.opts.History
	}
	h, err := git.Open(b.cfg.Dir)
	switch {
	case errors.Is(err, git.ErrNotRepository):
		st.warn(ctx, "last update info unavailable: site is not inside a git repository", logfields.Path(b.cfg.Dir))
		return nil
	case err != nil:
		st.warn(ctx, "last update info unavailable: "+err.Error(), logfields.Path(b.cfg.Dir))
		return nil
	}
	return h
}

func (b *Builder) renderDocs(ctx context.Context, st *state) error {
	if st.docs == nil {
		return nil
	}
	cfg := b.cfg
	live := make(map[string]bool, len(st.docs.Docs))
	for _, d := range st.docs.Docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		live[d.ID] = true
		siteRel := path.Join(cfg.Classic.Docs.Path, d.RelPath)

		key := cacheKey(d, st.digest)
		res, hit := b.opts.Cache.get(d.ID, key)
		if hit {
			st.report.CacheHits++
		} else {
			var err error
			res, err = b.md.Render(d.Body(), st.targets.forFile(cfg, siteRel))
			if err != nil {
				return ferrors.WrapError(err, ferrors.CategoryContent, "failed to render doc").
					WithContext(logfields.KeyDocID, d.ID).
					WithContext(logfields.KeyPath, siteRel).
					Build()
			}
			b.opts.Cache.put(d.ID, key, res)
		}
		st.markdownBroken(siteRel, res.BrokenMarkdownLinks)

		html, err := st.renderer.DocPage(d, res)
		if err != nil {
			return err
		}
		if err := st.out.AddPage(d.Route, html); err != nil {
			return err
		}
	}
	b.opts.Cache.prune(live)

	for _, a := range st.docs.Assets {
		if err := st.copyFile(a.Source, a.Route); err != nil {
			return err
		}
	}
	st.report.Docs = len(st.docs.Docs)
	b.opts.Recorder.SetPages("docs", len(st.docs.Docs))
	observability.DebugContext(ctx, "Docs rendered",
		logfields.Count(len(st.docs.Docs)),
		slog.Int("cache_hits", st.report.CacheHits))
	return nil
}

func (b *Builder) renderBlog(ctx context.Context, st *state) error {
	if st.blog == nil {
		return nil
	}
	cfg := b.cfg
	for _, p := range st.blog.Posts {
		if err := ctx.Err(); err != nil {
			return err
		}
		siteRel := path.Join(cfg.Classic.Blog.Path, p.RelPath)
		resolver := st.targets.forFile(cfg, siteRel)
		full, err := b.md.Render(p.Front.Body, resolver)
		if err != nil {
			return postError(err, siteRel)
		}
		p.HTML = full.HTML
		p.SummaryHTML = full.HTML
		if p.Truncated {
			summary, err := b.md.Render(p.Summary, resolver)
			if err != nil {
				return postError(err, siteRel)
			}
			p.SummaryHTML = summary.HTML
		}
		st.markdownBroken(siteRel, full.BrokenMarkdownLinks)
	}

	for _, p := range st.blog.Posts {
		html, err := st.renderer.BlogPostPage(st.blog, p)
		if err != nil {
			return err
		}
		if err := st.out.AddPage(p.Route, html); err != nil {
			return err
		}
	}
	for _, pg := range st.blog.Pages {
		html, err := st.renderer.BlogListPage(st.blog, pg)
		if err != nil {
			return err
		}
		if err := st.out.AddPage(pg.Route, html); err != nil {
			return err
		}
	}
	if cfg.Classic.Blog.FeedOptions.Type == "rss" {
		feed, err := blog.Feed(cfg, st.blog)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryBuild, "failed to render blog feed").Build()
		}
		st.out.Add(blog.FeedRoute(cfg), feed)
	}
	for _, a := range st.blog.Assets {
		if err := st.copyFile(a.Source, a.Route); err != nil {
			return err
		}
	}

	st.report.Posts = len(st.blog.Posts)
	st.report.Scheduled = st.blog.Scheduled
	st.report.NextDue = st.blog.NextDue
	if st.blog.Scheduled > 0 {
		observability.InfoContext(ctx, "Scheduled blog posts held back",
			logfields.Count(st.blog.Scheduled),
			slog.Time("next_due", st.blog.NextDue))
	}
	b.opts.Recorder.SetPages("blog", len(st.blog.Posts)+len(st.blog.Pages))
	return nil
}

func postError(err error, siteRel string) error {
	return ferrors.WrapError(err, ferrors.CategoryContent, "failed to render blog post").
		WithContext(logfields.KeyPath, siteRel).
		Build()
}

func (b *Builder) renderLanding(_ context.Context, st *state) error {
	html, err := st.renderer.Landing(b.cfg.Landing)
	if err != nil {
		return err
	}
	if err := st.out.AddPage("/", html); err != nil {
		return err
	}
	notFound, err := st.renderer.NotFoundPage()
	if err != nil {
		return err
	}
	st.out.Add(site.NotFoundFile, notFound)
	b.opts.Recorder.SetPages("landing", 1)
	return nil
}

func (b *Builder) staticAssets(ctx context.Context, st *state) error {
	for rel, data := range site.ThemeAssets() {
		st.out.Add(rel, data)
	}

	root := filepath.Join(b.cfg.Dir, StaticDir)
	if _, err := os.Stat(root); err == nil {
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil || d.IsDir() {
				return walkErr
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if st.out.Has(rel) {
				st.warn(ctx, "static file shadows a generated file and was skipped", logfields.Path(rel))
				return nil
			}
			return st.copyFile(p, rel)
		})
		if err != nil {
			if ferrors.IsClassified(err) {
				return err
			}
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to copy static files").
				WithContext(logfields.KeyPath, root).
				Build()
		}
	}

	if b.cfg.Classic != nil && b.cfg.Classic.Theme.CustomCSS != "" {
		src := filepath.Join(b.cfg.Dir, filepath.FromSlash(b.cfg.Classic.Theme.CustomCSS))
		if err := st.copyFile(src, site.CustomCSSFile); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) searchFiles(_ context.Context, st *state) error {
	if st.search == nil {
		return nil
	}
	data, err := search.OpenSearch(b.cfg)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryBuild, "failed to render opensearch description").Build()
	}
	st.out.Add(search.OpenSearchFile, data)

	page, err := st.renderer.SearchPage()
	if err != nil {
		return err
	}
	return st.out.AddPage(search.Route, page)
}

func (b *Builder) sitemap(_ context.Context, st *state) error {
	data, err := site.Sitemap(b.cfg, st.out.Routes())
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryBuild, "failed to render sitemap").Build()
	}
	st.out.Add(site.SitemapFile, data)
	st.out.Add(site.RobotsFile, site.Robots(b.cfg))
	return nil
}

// offlineSupport writes the registration script first so the precache
// manifest covers it, then the service worker.
func (b *Builder) offlineSupport(ctx context.Context, st *state) error {
	opts := b.cfg.PWA
	if opts == nil {
		return nil
	}
	register, err := pwa.RegisterScript(b.cfg)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryBuild, "failed to render service worker registration").Build()
	}
	st.out.Add(pwa.RegisterFile, register)

	entries := pwa.Precache(b.cfg.BaseURL, st.out.Files())
	worker, err := pwa.ServiceWorker(opts, entries)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryBuild, "failed to render service worker").Build()
	}
	st.out.Add(pwa.WorkerFile, worker)

	observability.InfoContext(ctx, "Service worker generated", logfields.Count(len(entries)))
	if opts.Debug {
		for _, e := range entries {
			observability.InfoContext(ctx, "Precached", logfields.Href(e.URL), slog.String("revision", e.Revision))
		}
	}
	return nil
}

func (b *Builder) checkLinks(ctx context.Context, st *state) error {
	verifier, err := linkverify.NewVerifier(b.cfg, st.out)
	if err != nil {
		return err
	}
	broken, err := verifier.VerifyAll(st.out.Pages())
	if err != nil {
		return err
	}
	sort.Slice(st.mdBroken, func(i, j int) bool {
		if st.mdBroken[i].Page != st.mdBroken[j].Page {
			return st.mdBroken[i].Page < st.mdBroken[j].Page
		}
		return st.mdBroken[i].URL < st.mdBroken[j].URL
	})

	st.report.BrokenLinks = len(broken)
	st.report.BrokenMarkdownLinks = len(st.mdBroken)
	b.opts.Recorder.AddBrokenLinks("links", len(broken))
	b.opts.Recorder.AddBrokenLinks("markdown", len(st.mdBroken))

	mdWarnings, err := linkverify.ApplyPolicy(b.cfg.OnBrokenMarkdownLinks, "markdown links", st.mdBroken)
	if err != nil {
		return err
	}
	linkWarnings, err := linkverify.ApplyPolicy(b.cfg.OnBrokenLinks, "links", broken)
	if err != nil {
		return err
	}
	for _, w := range append(mdWarnings, linkWarnings...) {
		st.report.AddWarning(w)
	}
	observability.DebugContext(ctx, "Links checked",
		slog.Int("pages", len(st.out.Pages())),
		slog.Int("broken", len(broken)),
		slog.Int("broken_markdown", len(st.mdBroken)))
	return nil
}

func (b *Builder) publish(ctx context.Context, st *state) error {
	if b.opts.OutputDir == "" {
		observability.DebugContext(ctx, "No output directory, skipping publish")
		return nil
	}
	dir, err := publishDir(b.cfg.Dir, b.opts.OutputDir)
	if err != nil {
		return err
	}
	if err := publishTree(ctx, dir, st.out.Files()); err != nil {
		return err
	}
	st.report.OutputDir = dir
	observability.InfoContext(ctx, "Site published", logfields.Path(dir), logfields.Count(st.out.Len()))
	return nil
}

func (st *state) markdownBroken(page string, dests []string) {
	for _, d := range dests {
		st.mdBroken = append(st.mdBroken, linkverify.BrokenLink{Page: page, URL: d, Tag: "a"})
	}
}

// copyFile reads src into the output at the site route or path dst.
func (st *state) copyFile(src, dst string) error {
	// #nosec G304 - sources come from the configured site directories
	data, err := os.ReadFile(src)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read asset").
			WithContext(logfields.KeyPath, src).
			Build()
	}
	st.out.Add(strings.TrimPrefix(dst, "/"), data)
	return nil
}
