package docs

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
	"github.com/frontedward/dictator/internal/logfields"
)

// DefaultSidebarName is used when no sidebars file is configured.
const DefaultSidebarName = "docsSidebar"

// ItemType is the kind of a sidebar entry.
type ItemType string

const (
	ItemDoc           ItemType = "doc"
	ItemCategory      ItemType = "category"
	ItemLink          ItemType = "link"
	ItemAutogenerated ItemType = "autogenerated"
)

// Sidebar is a named navigation tree.
type Sidebar struct {
	Name  string
	Items []*SidebarItem
}

// SidebarItem is one entry of a sidebar. A bare string in YAML is a doc id.
type SidebarItem struct {
	Type      ItemType       `yaml:"type"`
	ID        string         `yaml:"id"`
	Label     string         `yaml:"label"`
	Href      string         `yaml:"href"`
	DirName   string         `yaml:"dirName"`
	Collapsed *bool          `yaml:"collapsed"`
	Items     []*SidebarItem `yaml:"items"`

	Doc *Doc `yaml:"-"`
}

// UnmarshalYAML accepts either a doc id scalar or a mapping.
func (it *SidebarItem) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*it = SidebarItem{Type: ItemDoc, ID: node.Value}
		return nil
	}
	type plain SidebarItem
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*it = SidebarItem(p)
	if it.Type == "" {
		it.Type = ItemDoc
	}
	return nil
}

// IsCollapsed reports the initial state of a category; categories start collapsed.
func (it *SidebarItem) IsCollapsed() bool {
	return it.Collapsed == nil || *it.Collapsed
}

// Contains reports whether the doc appears anywhere below the item.
func (it *SidebarItem) Contains(d *Doc) bool {
	if it.Doc == d {
		return true
	}
	for _, c := range it.Items {
		if c.Contains(d) {
			return true
		}
	}
	return false
}

// Docs flattens the sidebar into reading order.
func (s *Sidebar) Docs() []*Doc {
	var out []*Doc
	var walk func(items []*SidebarItem)
	walk = func(items []*SidebarItem) {
		for _, it := range items {
			if it.Doc != nil {
				out = append(out, it.Doc)
			}
			walk(it.Items)
		}
	}
	walk(s.Items)
	return out
}

type categoryMeta struct {
	Label     string `yaml:"label"`
	Position  *int   `yaml:"position"`
	Collapsed *bool  `yaml:"collapsed"`
}

func isCategoryFile(name string) bool {
	return name == "_category_.yml" || name == "_category_.yaml"
}

func readCategory(p string) (categoryMeta, error) {
	var meta categoryMeta
	// #nosec G304 - path comes from walking the docs directory
	data, err := os.ReadFile(p)
	if err != nil {
		return meta, err
	}
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return meta, ferrors.WrapError(err, ferrors.CategoryContent, "invalid category metadata").
			WithContext(logfields.KeyPath, p).
			Build()
	}
	return meta, nil
}

func (l *Loader) resolveSidebars(set *Set) error {
	var sidebars []*Sidebar
	if l.SidebarFile != "" {
		loaded, err := readSidebars(l.SidebarFile)
		if err != nil {
			return err
		}
		sidebars = loaded
	} else {
		sidebars = []*Sidebar{{
			Name:  DefaultSidebarName,
			Items: []*SidebarItem{{Type: ItemAutogenerated, DirName: "."}},
		}}
	}

	for _, sb := range sidebars {
		items, err := set.resolveItems(sb.Items)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryContent, "invalid sidebar").
				WithContext("sidebar", sb.Name).
				Build()
		}
		sb.Items = items
		docs := sb.Docs()
		for i, d := range docs {
			if d.Sidebar != "" {
				continue
			}
			d.Sidebar = sb.Name
			if i > 0 {
				d.Prev = docs[i-1]
			}
			if i < len(docs)-1 {
				d.Next = docs[i+1]
			}
		}
	}
	set.Sidebars = sidebars
	return nil
}

func readSidebars(file string) ([]*Sidebar, error) {
	// #nosec G304 - sidebar path is part of the site configuration
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read sidebars file").
			WithContext(logfields.KeyPath, file).
			Fatal().
			Build()
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse sidebars file").
			WithContext(logfields.KeyPath, file).
			Fatal().
			Build()
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, ferrors.ConfigError("sidebars file must be a mapping of sidebar names to items").
			WithContext(logfields.KeyPath, file).
			Build()
	}
	var out []*Sidebar
	for i := 0; i+1 < len(doc.Content); i += 2 {
		sb := &Sidebar{Name: doc.Content[i].Value}
		if err := doc.Content[i+1].Decode(&sb.Items); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid sidebar items").
				WithContext("sidebar", sb.Name).
				Fatal().
				Build()
		}
		out = append(out, sb)
	}
	return out, nil
}

func (s *Set) resolveItems(items []*SidebarItem) ([]*SidebarItem, error) {
	var out []*SidebarItem
	for _, it := range items {
		switch it.Type {
		case ItemDoc:
			d, ok := s.ByID(it.ID)
			if !ok {
				return nil, fmt.Errorf("unknown doc id %q", it.ID)
			}
			it.Doc = d
			if it.Label == "" {
				it.Label = d.Label
			}
			out = append(out, it)
		case ItemCategory:
			if it.Label == "" {
				return nil, errors.New("category without label")
			}
			children, err := s.resolveItems(it.Items)
			if err != nil {
				return nil, err
			}
			it.Items = children
			out = append(out, it)
		case ItemLink:
			if it.Href == "" || it.Label == "" {
				return nil, errors.New("link items need label and href")
			}
			out = append(out, it)
		case ItemAutogenerated:
			dir := it.DirName
			if dir == "" {
				dir = "."
			}
			out = append(out, s.autogenerate(path.Clean(dir))...)
		default:
			return nil, fmt.Errorf("unknown sidebar item type %q", it.Type)
		}
	}
	return out, nil
}

type entry struct {
	item   *SidebarItem
	name   string
	pos    int
	hasPos bool
}

// autogenerate builds items for the docs and subdirectories of dir, ordered
// by position first and name second. Unpositioned entries follow positioned ones.
func (s *Set) autogenerate(dir string) []*SidebarItem {
	var entries []entry
	subdirs := map[string]bool{}
	for _, d := range s.Docs {
		switch {
		case d.Dir == dir:
			entries = append(entries, entry{
				item:   &SidebarItem{Type: ItemDoc, ID: d.ID, Label: d.Label, Doc: d},
				name:   path.Base(d.RelPath),
				pos:    d.Position,
				hasPos: d.HasPos,
			})
		case dir == "." || strings.HasPrefix(d.Dir, dir+"/"):
			rest := d.Dir
			if dir != "." {
				rest = strings.TrimPrefix(d.Dir, dir+"/")
			}
			child := strings.SplitN(rest, "/", 2)[0]
			if dir != "." {
				child = dir + "/" + child
			}
			subdirs[child] = true
		}
	}
	for sub := range subdirs {
		base := path.Base(sub)
		meta := s.categories[sub]
		cat := &SidebarItem{
			Type:      ItemCategory,
			Label:     meta.Label,
			Collapsed: meta.Collapsed,
			Items:     s.autogenerate(sub),
		}
		if cat.Label == "" {
			cat.Label = categoryLabel(base)
		}
		e := entry{item: cat, name: base}
		if meta.Position != nil {
			e.pos, e.hasPos = *meta.Position, true
		} else if n, ok := prefixNumber(base); ok {
			e.pos, e.hasPos = n, true
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.hasPos != b.hasPos {
			return a.hasPos
		}
		if a.hasPos && a.pos != b.pos {
			return a.pos < b.pos
		}
		return a.name < b.name
	})
	out := make([]*SidebarItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.item)
	}
	return out
}

// categoryLabel turns a directory name such as "02-node_js" into "Node Js".
func categoryLabel(dir string) string {
	name := strings.NewReplacer("-", " ", "_", " ").Replace(stripNumberPrefix(dir))
	return cases.Title(language.Und).String(strings.Join(strings.Fields(name), " "))
}
