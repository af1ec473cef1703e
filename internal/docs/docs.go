package docs

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/inful/mdfp"

	"github.com/frontedward/dictator/internal/config"
	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
	"github.com/frontedward/dictator/internal/frontmatter"
	"github.com/frontedward/dictator/internal/git"
	"github.com/frontedward/dictator/internal/logfields"
	"github.com/frontedward/dictator/internal/markdown"
)

var numberPrefix = regexp.MustCompile(`^(\d+)[-_.\s]+`)

// Doc is one documentation page.
type Doc struct {
	ID       string // e.g. "guide/intro-guide"
	Source   string // absolute path
	RelPath  string // slash-separated, relative to the docs directory
	Dir      string // slash-separated source directory, "." at the root
	Title    string
	Label    string // sidebar label
	Position int
	HasPos   bool
	Route    string // site route without baseUrl, e.g. "/docs/guide/intro-guide"

	Front       *frontmatter.Document
	Fingerprint string
	LastUpdate  *git.Update

	// Sidebar navigation, set once sidebars are resolved.
	Sidebar string
	Prev    *Doc
	Next    *Doc
}

// Body returns the markdown body without frontmatter.
func (d *Doc) Body() []byte { return d.Front.Body }

// EditURL joins an editUrl prefix with the doc's path inside the site.
func (d *Doc) EditURL(prefix, docsPath string) string {
	if prefix == "" {
		return ""
	}
	return strings.TrimSuffix(prefix, "/") + "/" + path.Join(docsPath, d.RelPath)
}

// Asset is a non-markdown file published next to the docs.
type Asset struct {
	Source  string
	RelPath string
	Route   string
}

// Set is the loaded docs tree.
type Set struct {
	Docs     []*Doc
	Assets   []Asset
	Sidebars []*Sidebar

	byID       map[string]*Doc
	bySource   map[string]*Doc
	categories map[string]categoryMeta
}

// ByID looks a doc up by id.
func (s *Set) ByID(id string) (*Doc, bool) {
	d, ok := s.byID[strings.Trim(id, "/")]
	return d, ok
}

// BySource looks a doc up by its slash-separated path relative to the docs directory.
func (s *Set) BySource(rel string) (*Doc, bool) {
	d, ok := s.bySource[path.Clean(rel)]
	return d, ok
}

// SidebarFor returns the sidebar the doc belongs to, or nil.
func (s *Set) SidebarFor(d *Doc) *Sidebar {
	for _, sb := range s.Sidebars {
		if sb.Name == d.Sidebar {
			return sb
		}
	}
	return nil
}

// Loader reads a docs directory.
type Loader struct {
	Root          string // absolute docs directory
	RouteBasePath string
	SidebarFile   string // optional sidebars YAML
	History       *git.History
	WithHistory   bool
	IncludeDrafts bool
}

// NewLoader builds a Loader for the classic docs options of cfg.
func NewLoader(cfg *config.SiteConfig, history *git.History) *Loader {
	opts := cfg.Classic.Docs
	l := &Loader{
		Root:          filepath.Join(cfg.Dir, filepath.FromSlash(opts.Path)),
		RouteBasePath: opts.RouteBasePath,
		History:       history,
		WithHistory:   opts.ShowLastUpdateTime || opts.ShowLastUpdateAuthor,
	}
	if opts.SidebarPath != "" {
		l.SidebarFile = filepath.Join(cfg.Dir, filepath.FromSlash(opts.SidebarPath))
	}
	return l
}

// Load walks the docs directory, then resolves sidebars and prev/next links.
func (l *Loader) Load() (*Set, error) {
	set := &Set{
		byID:       map[string]*Doc{},
		bySource:   map[string]*Doc{},
		categories: map[string]categoryMeta{},
	}
	routes := map[string]string{}

	err := filepath.WalkDir(l.Root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && p != l.Root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.Root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if isCategoryFile(name) {
			meta, err := readCategory(p)
			if err != nil {
				return err
			}
			set.categories[path.Dir(rel)] = meta
			return nil
		}
		if !markdown.IsMarkdownFile(name) {
			set.Assets = append(set.Assets, Asset{Source: p, RelPath: rel, Route: l.route(rel)})
			return nil
		}

		doc, err := l.loadDoc(p, rel)
		if err != nil {
			return err
		}
		if doc == nil {
			return nil
		}
		if other, dup := set.byID[doc.ID]; dup {
			return ferrors.ContentError("duplicate doc id").
				WithContext(logfields.KeyDocID, doc.ID).
				WithContext("first", other.RelPath).
				WithContext("second", rel).
				Build()
		}
		if other, dup := routes[doc.Route]; dup {
			return ferrors.ContentError("duplicate doc route").
				WithContext(logfields.KeyRoute, doc.Route).
				WithContext("first", other).
				WithContext("second", rel).
				Build()
		}
		routes[doc.Route] = rel
		set.byID[doc.ID] = doc
		set.bySource[rel] = doc
		set.Docs = append(set.Docs, doc)
		return nil
	})
	if err != nil {
		if ferrors.IsClassified(err) {
			return nil, err
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read docs directory").
			WithContext(logfields.KeyPath, l.Root).
			Build()
	}
	sort.Slice(set.Docs, func(i, j int) bool { return set.Docs[i].ID < set.Docs[j].ID })

	if err := l.resolveSidebars(set); err != nil {
		return nil, err
	}
	slog.Debug("Docs loaded",
		logfields.Path(l.Root),
		logfields.Count(len(set.Docs)),
		slog.Int("assets", len(set.Assets)),
		slog.Int("sidebars", len(set.Sidebars)))
	return set, nil
}

func (l *Loader) loadDoc(abs, rel string) (*Doc, error) {
	// #nosec G304 - paths come from walking the configured docs directory
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	front, err := frontmatter.Parse(raw)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryContent, "invalid frontmatter").
			WithContext(logfields.KeyPath, rel).
			Build()
	}
	if front.Bool("draft") && !l.IncludeDrafts {
		slog.Debug("Skipping draft doc", logfields.Path(rel))
		return nil, nil
	}

	dir := path.Dir(rel)
	base := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	prefixPos, hasPrefixPos := prefixNumber(base)
	base = stripNumberPrefix(base)
	cleanDir := stripDirPrefixes(dir)

	last := base
	if id := front.String("id"); id != "" {
		last = id
	}
	id := last
	if cleanDir != "." {
		id = cleanDir + "/" + last
	}

	doc := &Doc{
		ID:          id,
		Source:      abs,
		RelPath:     rel,
		Dir:         dir,
		Front:       front,
		Fingerprint: mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(front.Raw), "\n"), string(front.Body)),
	}

	doc.Title = front.String("title")
	if doc.Title == "" {
		doc.Title = firstHeading(front.Body)
	}
	if doc.Title == "" {
		doc.Title = last
	}
	doc.Label = front.String("sidebar_label")
	if doc.Label == "" {
		doc.Label = doc.Title
	}
	if pos, ok := front.Int("sidebar_position"); ok {
		doc.Position, doc.HasPos = pos, true
	} else if hasPrefixPos {
		doc.Position, doc.HasPos = prefixPos, true
	}

	doc.Route = l.docRoute(cleanDir, last, base, front.String("slug"))

	if l.WithHistory && l.History != nil {
		u, ok, err := l.History.LastUpdate(abs)
		if err != nil {
			slog.Warn("Failed to read last update from git", logfields.Path(rel), logfields.Error(err))
		} else if ok {
			doc.LastUpdate = &u
		}
	}
	return doc, nil
}

func (l *Loader) docRoute(dir, last, base, slug string) string {
	var p string
	switch {
	case strings.HasPrefix(slug, "/"):
		p = slug
	case slug != "":
		p = path.Join(dir, slug)
	case strings.EqualFold(base, "index"), strings.EqualFold(base, "readme"):
		p = dir
	default:
		p = path.Join(dir, last)
	}
	return l.route(p)
}

// route maps a path inside the docs directory to a site route.
func (l *Loader) route(p string) string {
	r := path.Join("/", l.RouteBasePath, p)
	if r == "/." {
		return "/"
	}
	return r
}

func firstHeading(body []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(body))
	fenced := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "```") || strings.HasPrefix(line, "~~~") {
			fenced = !fenced
			continue
		}
		if !fenced && strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimRight(strings.TrimPrefix(line, "# "), "#"))
		}
	}
	return ""
}

func prefixNumber(name string) (int, bool) {
	m := numberPrefix.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}

func stripNumberPrefix(name string) string {
	if stripped := numberPrefix.ReplaceAllString(name, ""); stripped != "" {
		return stripped
	}
	return name
}

func stripDirPrefixes(dir string) string {
	if dir == "." {
		return dir
	}
	parts := strings.Split(dir, "/")
	for i, p := range parts {
		parts[i] = stripNumberPrefix(p)
	}
	return strings.Join(parts, "/")
}

func (d *Doc) String() string { return fmt.Sprintf("%s (%s)", d.ID, d.RelPath) }
