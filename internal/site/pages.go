package site

import (
	"fmt"
	"html/template"
	"path"
	"strings"
	"time"

	"github.com/frontedward/dictator/internal/blog"
	"github.com/frontedward/dictator/internal/docs"
	"github.com/frontedward/dictator/internal/markdown"
)

// RecentPosts is the length of the recent posts list on blog pages.
const RecentPosts = 5

const dateLayout = "January 2, 2006"

type lastUpdateView struct {
	Date    string
	ISODate string
	Author  string
}

type docView struct {
	Title       string
	HasH1       bool
	Content     template.HTML
	Sidebar     *sidebarView
	Breadcrumbs []crumb
	EditURL     string
	LastUpdate  *lastUpdateView
	Prev        *navLink
	Next        *navLink
	TOC         []markdown.Heading
}

// DocPage renders one doc with its sidebar, breadcrumbs, table of contents
// and prev/next links.
func (r *Renderer) DocPage(d *docs.Doc, res *markdown.Result) ([]byte, error) {
	v := docView{
		Title:   d.Title,
		HasH1:   res.HasH1,
		Content: res.HTML,
		TOC:     res.Headings,
	}
	var sb *docs.Sidebar
	if r.docs != nil {
		sb = r.docs.SidebarFor(d)
	}
	v.Sidebar = r.sidebar(sb, d)

	if opts := r.cfg.Classic; opts != nil && opts.Docs != nil {
		if opts.Docs.ShowBreadcrumbs() {
			v.Breadcrumbs = r.breadcrumbs(sb, d)
		}
		v.EditURL = d.EditURL(opts.Docs.EditURL, opts.Docs.Path)
		if d.LastUpdate != nil {
			u := &lastUpdateView{}
			if opts.Docs.ShowLastUpdateTime && !d.LastUpdate.Time.IsZero() {
				u.Date = d.LastUpdate.Time.UTC().Format(dateLayout)
				u.ISODate = d.LastUpdate.Time.UTC().Format(time.RFC3339)
			}
			if opts.Docs.ShowLastUpdateAuthor {
				u.Author = d.LastUpdate.Author
			}
			if u.Date != "" || u.Author != "" {
				v.LastUpdate = u
			}
		}
	}
	if d.Prev != nil {
		v.Prev = &navLink{Label: d.Prev.Label, Href: r.href(d.Prev.Route)}
	}
	if d.Next != nil {
		v.Next = &navLink{Label: d.Next.Label, Href: r.href(d.Next.Route)}
	}

	var description string
	if d.Front != nil {
		description = d.Front.String("description")
	}
	return r.render(page{
		Kind:        kindDoc,
		Title:       r.pageTitle(d.Title),
		Description: description,
		Canonical:   r.cfg.AbsoluteURL(d.Route),
		Body:        v,
	})
}

type postView struct {
	Title       string
	Href        string
	Date        string
	ISODate     string
	ReadingTime int
	Authors     []string
	Tags        []string
	Content     template.HTML
	Truncated   bool
	Link        bool
	EditURL     string
}

type blogListView struct {
	Title       string
	Description string
	First       bool
	Posts       []postView
	Newer       string
	Older       string
	Recent      []postView
}

type blogPostView struct {
	Post   postView
	Newer  *postView
	Older  *postView
	Recent []postView
}

func (r *Renderer) post(p *blog.Post, summary bool) postView {
	v := postView{
		Title:   p.Title,
		Href:    r.href(p.Route),
		Date:    p.Date.Format(dateLayout),
		ISODate: p.Date.Format(time.RFC3339),
		Authors: p.Authors,
		Tags:    p.Tags,
		Content: p.HTML,
		Link:    summary,
	}
	if summary {
		v.Content = p.SummaryHTML
		v.Truncated = p.Truncated
	}
	if opts := r.cfg.Classic; opts != nil && opts.Blog != nil {
		if opts.Blog.ShowReadingTime {
			v.ReadingTime = p.ReadingTime()
		}
		if opts.Blog.EditURL != "" {
			v.EditURL = strings.TrimSuffix(opts.Blog.EditURL, "/") + "/" + path.Join(opts.Blog.Path, p.RelPath)
		}
	}
	return v
}

func (r *Renderer) recent(b *blog.Blog) []postView {
	n := min(RecentPosts, len(b.Posts))
	out := make([]postView, 0, n)
	for _, p := range b.Posts[:n] {
		out = append(out, postView{Title: p.Title, Href: r.href(p.Route)})
	}
	return out
}

func (r *Renderer) blogTitle() (string, string) {
	if opts := r.cfg.Classic; opts != nil && opts.Blog != nil {
		return opts.Blog.BlogTitle, opts.Blog.BlogDescription
	}
	return "Blog", ""
}

// BlogListPage renders one page of the paginated post list with post summaries.
func (r *Renderer) BlogListPage(b *blog.Blog, pg blog.Page) ([]byte, error) {
	title, description := r.blogTitle()
	v := blogListView{
		Title:       title,
		Description: description,
		First:       pg.Number == 1,
		Recent:      r.recent(b),
	}
	for _, p := range pg.Posts {
		v.Posts = append(v.Posts, r.post(p, true))
	}
	if pg.PrevPage != "" {
		v.Newer = r.href(pg.PrevPage)
	}
	if pg.NextPage != "" {
		v.Older = r.href(pg.NextPage)
	}
	pageTitle := title
	if pg.Number > 1 {
		pageTitle = fmt.Sprintf("%s - Page %d", title, pg.Number)
	}
	return r.render(page{
		Kind:        kindBlogList,
		Title:       r.pageTitle(pageTitle),
		Description: description,
		Canonical:   r.cfg.AbsoluteURL(pg.Route),
		Body:        v,
	})
}

// BlogPostPage renders a full post with links to its newer and older neighbors.
func (r *Renderer) BlogPostPage(b *blog.Blog, p *blog.Post) ([]byte, error) {
	v := blogPostView{Post: r.post(p, false), Recent: r.recent(b)}
	for i, other := range b.Posts {
		if other != p {
			continue
		}
		if i > 0 {
			newer := r.post(b.Posts[i-1], true)
			v.Newer = &newer
		}
		if i < len(b.Posts)-1 {
			older := r.post(b.Posts[i+1], true)
			v.Older = &older
		}
		break
	}
	return r.render(page{
		Kind:        kindBlogPost,
		Title:       r.pageTitle(p.Title),
		Description: p.Description,
		Canonical:   r.cfg.AbsoluteURL(p.Route),
		Body:        v,
	})
}
