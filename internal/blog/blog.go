// Package blog discovers dated blog posts, paginates them and produces the RSS feed.
package blog

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/frontedward/dictator/internal/config"
	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
	"github.com/frontedward/dictator/internal/frontmatter"
	"github.com/frontedward/dictator/internal/logfields"
	"github.com/frontedward/dictator/internal/markdown"
)

// WordsPerMinute is the reading speed used for reading time estimates.
const WordsPerMinute = 200

var datedName = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})[-_](.+)$`)

// Post is one blog entry.
type Post struct {
	Slug        string
	Title       string
	Description string
	Date        time.Time
	Authors     []string
	Tags        []string
	Source      string
	RelPath     string
	Route       string // e.g. "/blog/2022/03/14/hello"

	Front     *frontmatter.Document
	Summary   []byte // markdown before the truncate marker
	Truncated bool
	Words     int

	// Filled in by the renderer.
	HTML        template.HTML
	SummaryHTML template.HTML
}

// ReadingTime is the estimated reading time in whole minutes, at least one.
func (p *Post) ReadingTime() int {
	return ReadingMinutes(p.Words)
}

// ReadingMinutes rounds words/WordsPerMinute up, with a minimum of one minute.
func ReadingMinutes(words int) int {
	m := (words + WordsPerMinute - 1) / WordsPerMinute
	if m < 1 {
		return 1
	}
	return m
}

// Page is one page of the paginated post list.
type Page struct {
	Number   int
	Route    string
	Posts    []*Post
	PrevPage string
	NextPage string
}

// Asset is a non-markdown file inside the blog directory.
type Asset struct {
	Source  string
	RelPath string
	Route   string
}

// Blog is the loaded set of published posts, newest first.
type Blog struct {
	Posts  []*Post
	Pages  []Page
	Assets []Asset
	// Scheduled counts future-dated posts held back from this build.
	Scheduled int
	// NextDue is the date of the earliest scheduled post, zero when none.
	NextDue time.Time

	bySource map[string]*Post
}

// BySource looks a post up by slash-separated path relative to the blog directory.
func (b *Blog) BySource(rel string) (*Post, bool) {
	p, ok := b.bySource[path.Clean(rel)]
	return p, ok
}

// Loader reads a blog directory.
type Loader struct {
	Root          string
	RouteBasePath string
	PostsPerPage  int
	IncludeDrafts bool
	Now           func() time.Time
}

// NewLoader builds a Loader from the classic blog options of cfg.
func NewLoader(cfg *config.SiteConfig) *Loader {
	opts := cfg.Classic.Blog
	return &Loader{
		Root:          filepath.Join(cfg.Dir, filepath.FromSlash(opts.Path)),
		RouteBasePath: opts.RouteBasePath,
		PostsPerPage:  opts.PostsPerPage,
		Now:           time.Now,
	}
}

// Load discovers posts. A missing blog directory yields an empty blog.
func (l *Loader) Load() (*Blog, error) {
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	b := &Blog{bySource: map[string]*Post{}}

	if _, err := os.Stat(l.Root); os.IsNotExist(err) {
		slog.Debug("Blog directory not found", logfields.Path(l.Root))
		b.Pages = l.paginate(nil)
		return b, nil
	}

	routes := map[string]string{}
	err := filepath.WalkDir(l.Root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if strings.HasPrefix(d.Name(), ".") && p != l.Root {
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
		if !markdown.IsMarkdownFile(rel) {
			b.Assets = append(b.Assets, Asset{Source: p, RelPath: rel, Route: path.Join("/", l.RouteBasePath, rel)})
			return nil
		}

		post, err := l.loadPost(p, rel)
		if err != nil {
			return err
		}
		if post == nil {
			return nil
		}
		if post.Date.After(now) {
			b.Scheduled++
			if b.NextDue.IsZero() || post.Date.Before(b.NextDue) {
				b.NextDue = post.Date
			}
			slog.Debug("Holding back scheduled post", logfields.Path(rel), slog.Time("date", post.Date))
			return nil
		}
		if other, dup := routes[post.Route]; dup {
			return ferrors.ContentError("duplicate blog post route").
				WithContext(logfields.KeyRoute, post.Route).
				WithContext("first", other).
				WithContext("second", rel).
				Build()
		}
		routes[post.Route] = rel
		b.bySource[rel] = post
		b.Posts = append(b.Posts, post)
		return nil
	})
	if err != nil {
		if ferrors.IsClassified(err) {
			return nil, err
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read blog directory").
			WithContext(logfields.KeyPath, l.Root).
			Build()
	}

	sort.SliceStable(b.Posts, func(i, j int) bool {
		if !b.Posts[i].Date.Equal(b.Posts[j].Date) {
			return b.Posts[i].Date.After(b.Posts[j].Date)
		}
		return b.Posts[i].Slug < b.Posts[j].Slug
	})
	b.Pages = l.paginate(b.Posts)
	slog.Debug("Blog loaded", logfields.Path(l.Root), logfields.Count(len(b.Posts)), slog.Int("scheduled", b.Scheduled))
	return b, nil
}

func (l *Loader) loadPost(abs, rel string) (*Post, error) {
	// #nosec G304 - paths come from walking the configured blog directory
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
		return nil, nil
	}

	// "2022-03-14-hello.md" or "2022-03-14-hello/index.md"
	name := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	if strings.EqualFold(name, "index") && path.Dir(rel) != "." {
		name = path.Base(path.Dir(rel))
	}

	post := &Post{Source: abs, RelPath: rel, Front: front, Slug: name}
	if m := datedName.FindStringSubmatch(name); m != nil {
		if d, err := time.Parse("2006-01-02", fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])); err == nil {
			post.Date = d
		}
		post.Slug = m[4]
	}
	if d, ok := front.Time("date"); ok {
		post.Date = d
	}
	if post.Date.IsZero() {
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		post.Date = info.ModTime()
	}

	post.Title = front.String("title")
	if post.Title == "" {
		post.Title = post.Slug
	}
	post.Description = front.String("description")
	post.Authors = front.Strings("authors")
	if len(post.Authors) == 0 {
		post.Authors = front.Strings("author")
	}
	post.Tags = front.Strings("tags")

	slug := front.String("slug")
	switch {
	case strings.HasPrefix(slug, "/"):
		post.Route = path.Join("/", l.RouteBasePath, slug)
	case slug != "":
		post.Slug = slug
		fallthrough
	default:
		post.Route = path.Join("/", l.RouteBasePath, post.Date.Format("2006/01/02"), post.Slug)
	}

	post.Summary, post.Truncated = markdown.SplitSummary(front.Body)
	post.Words = len(strings.Fields(string(front.Body)))
	return post, nil
}

// paginate splits posts into pages. The first page is the blog root, later
// pages live at <base>/page/N. An empty blog still has one page.
func (l *Loader) paginate(posts []*Post) []Page {
	per := l.PostsPerPage
	if per < 1 {
		per = config.DefaultPostsPerPage
	}
	count := (len(posts) + per - 1) / per
	if count == 0 {
		count = 1
	}
	pages := make([]Page, count)
	for i := range pages {
		start := i * per
		end := min(start+per, len(posts))
		pages[i] = Page{Number: i + 1, Route: l.pageRoute(i + 1)}
		if start < end {
			pages[i].Posts = posts[start:end]
		}
		if i > 0 {
			pages[i].PrevPage = l.pageRoute(i)
		}
		if i < count-1 {
			pages[i].NextPage = l.pageRoute(i + 2)
		}
	}
	return pages
}

func (l *Loader) pageRoute(n int) string {
	if n == 1 {
		return path.Join("/", l.RouteBasePath)
	}
	return path.Join("/", l.RouteBasePath, "page", fmt.Sprint(n))
}
