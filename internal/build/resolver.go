package build

import (
	"path"
	"strings"

	"github.com/frontedward/dictator/internal/blog"
	"github.com/frontedward/dictator/internal/config"
	"github.com/frontedward/dictator/internal/docs"
)

// linkTargets maps site-relative source paths ("docs/guide/intro.md",
// "blog/2022-03-14-hello.md", "docs/img/a.png") to the routes they publish at.
type linkTargets map[string]string

func collectTargets(cfg *config.SiteConfig, set *docs.Set, posts *blog.Blog) linkTargets {
	t := linkTargets{}
	if set != nil {
		base := cfg.Classic.Docs.Path
		for _, d := range set.Docs {
			t[path.Join(base, d.RelPath)] = d.Route
		}
		for _, a := range set.Assets {
			t[path.Join(base, a.RelPath)] = a.Route
		}
	}
	if posts != nil {
		base := cfg.Classic.Blog.Path
		for _, p := range posts.Posts {
			t[path.Join(base, p.RelPath)] = p.Route
		}
		for _, a := range posts.Assets {
			t[path.Join(base, a.RelPath)] = a.Route
		}
	}
	return t
}

// sourceResolver resolves links of one markdown file. Relative destinations
// are taken relative to the file, absolute ones relative to the site directory.
type sourceResolver struct {
	cfg     *config.SiteConfig
	targets linkTargets
	dir     string // site-relative directory of the file being rendered
}

func (t linkTargets) forFile(cfg *config.SiteConfig, siteRel string) *sourceResolver {
	return &sourceResolver{cfg: cfg, targets: t, dir: path.Dir(siteRel)}
}

func (r *sourceResolver) ResolveLink(dest string, markdownFile bool) (string, bool) {
	var rel string
	if strings.HasPrefix(dest, "/") {
		if !markdownFile {
			return r.cfg.WithBaseURL(dest), true
		}
		rel = strings.TrimPrefix(path.Clean(dest), "/")
	} else {
		rel = path.Join(r.dir, dest)
	}
	if route, ok := r.targets[rel]; ok {
		return r.cfg.WithBaseURL(route), true
	}
	return "", false
}
