package site

import (
	"html/template"

	"github.com/frontedward/dictator/internal/config"
	"github.com/frontedward/dictator/internal/docs"
	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
	"github.com/frontedward/dictator/internal/logfields"
)

type navLink struct {
	Label    string
	Href     string
	External bool
}

type navbarView struct {
	Title   string
	LogoSrc string
	LogoAlt string
	Home    string
	Left    []navLink
	Right   []navLink
	Search  bool
}

// navbar resolves the configured items, keeping declared order within each side.
func (r *Renderer) navbar(withSearch bool) (navbarView, error) {
	nb := r.cfg.ThemeConfig.Navbar
	v := navbarView{Title: nb.Title, Home: r.href("/"), Search: withSearch}
	if nb.Logo != nil && nb.Logo.Src != "" {
		v.LogoSrc = r.cfg.WithBaseURL(nb.Logo.Src)
		v.LogoAlt = nb.Logo.Alt
	}
	for i, it := range nb.Items {
		link := navLink{Label: it.Label}
		if it.Type == config.NavbarItemDoc {
			route, ok := r.docRoute(it.DocID)
			if !ok {
				return v, ferrors.BuildError("navbar item references an unknown doc").
					WithContext(logfields.KeyDocID, it.DocID).
					WithContext("item", i).
					Fatal().
					Build()
			}
			link.Href = r.href(route)
		} else {
			link.Href, link.External = r.linkHref(it.Href, it.To)
		}
		if it.Position == config.PositionRight {
			v.Right = append(v.Right, link)
		} else {
			v.Left = append(v.Left, link)
		}
	}
	return v, nil
}

type footerView struct {
	Style     string
	Columns   []footerColumn
	Copyright template.HTML
}

type footerColumn struct {
	Title string
	Items []footerLink
}

type footerLink struct {
	Label    string
	Href     string
	External bool
	HTML     template.HTML
}

func (r *Renderer) footer() *footerView {
	f := r.cfg.ThemeConfig.Footer
	if f == nil {
		return nil
	}
	v := &footerView{
		Style:     f.Style,
		Copyright: template.HTML(f.Copyright), //nolint:gosec // site owner markup
	}
	if v.Style == "" {
		v.Style = "light"
	}
	for _, col := range f.Links {
		fc := footerColumn{Title: col.Title}
		for _, it := range col.Items {
			if it.HTML != "" {
				fc.Items = append(fc.Items, footerLink{HTML: template.HTML(it.HTML)}) //nolint:gosec // site owner markup
				continue
			}
			href, external := r.linkHref(it.Href, it.To)
			fc.Items = append(fc.Items, footerLink{Label: it.Label, Href: href, External: external})
		}
		v.Columns = append(v.Columns, fc)
	}
	return v
}

type menuItem struct {
	Label     string
	Href      string
	Active    bool
	External  bool
	Category  bool
	Collapsed bool
	Items     []menuItem
}

type sidebarView struct {
	Hideable     bool
	AutoCollapse bool
	Items        []menuItem
}

func (r *Renderer) sidebar(sb *docs.Sidebar, current *docs.Doc) *sidebarView {
	if sb == nil {
		return nil
	}
	return &sidebarView{
		Hideable:     r.cfg.ThemeConfig.HideableSidebar,
		AutoCollapse: r.cfg.ThemeConfig.AutoCollapseSidebarCategories,
		Items:        r.menu(sb.Items, current),
	}
}

// menu converts sidebar items. Categories holding the current doc are always open.
func (r *Renderer) menu(items []*docs.SidebarItem, current *docs.Doc) []menuItem {
	out := make([]menuItem, 0, len(items))
	for _, it := range items {
		switch it.Type {
		case docs.ItemCategory:
			out = append(out, menuItem{
				Label:     it.Label,
				Category:  true,
				Collapsed: it.IsCollapsed() && !it.Contains(current),
				Items:     r.menu(it.Items, current),
			})
		case docs.ItemLink:
			href, external := r.linkHref(it.Href, "")
			if !external {
				href = r.cfg.WithBaseURL(it.Href)
			}
			out = append(out, menuItem{Label: it.Label, Href: href, External: external})
		default:
			if it.Doc == nil {
				continue
			}
			out = append(out, menuItem{
				Label:  it.Label,
				Href:   r.href(it.Doc.Route),
				Active: it.Doc == current,
			})
		}
	}
	return out
}

type crumb struct {
	Label string
	Href  string
}

// breadcrumbs is the home link, the categories leading to d, then d itself.
func (r *Renderer) breadcrumbs(sb *docs.Sidebar, d *docs.Doc) []crumb {
	crumbs := []crumb{{Label: "Home", Href: r.href("/")}}
	if sb != nil {
		for _, label := range categoryPath(sb.Items, d) {
			crumbs = append(crumbs, crumb{Label: label})
		}
	}
	return append(crumbs, crumb{Label: d.Label})
}

func categoryPath(items []*docs.SidebarItem, d *docs.Doc) []string {
	for _, it := range items {
		if it.Type != docs.ItemCategory || !it.Contains(d) {
			continue
		}
		return append([]string{it.Label}, categoryPath(it.Items, d)...)
	}
	return nil
}
