package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// BrokenLinkPolicy governs whether an unresolved internal link fails or warns the build.
type BrokenLinkPolicy string

const (
	PolicyIgnore BrokenLinkPolicy = "ignore"
	PolicyLog    BrokenLinkPolicy = "log"
	PolicyWarn   BrokenLinkPolicy = "warn"
	PolicyThrow  BrokenLinkPolicy = "throw"
)

// NavbarItemType selects how a navbar item resolves its target.
type NavbarItemType string

const (
	NavbarItemDoc  NavbarItemType = "doc"
	NavbarItemLink NavbarItemType = "link"
)

// NavbarPosition is the side of the navbar an item is rendered on.
type NavbarPosition string

const (
	PositionLeft  NavbarPosition = "left"
	PositionRight NavbarPosition = "right"
)

// ActivationStrategy names a condition under which the PWA offline mode is enabled.
type ActivationStrategy string

const (
	StrategyAppInstalled ActivationStrategy = "appInstalled"
	StrategyStandalone   ActivationStrategy = "standalone"
	StrategyQueryString  ActivationStrategy = "queryString"
	StrategyMobile       ActivationStrategy = "mobile"
	StrategySaveData     ActivationStrategy = "saveData"
	StrategyAlways       ActivationStrategy = "always"
)

// SiteConfig is the top-level static descriptor governing build and navigation behavior.
// Exactly one SiteConfig is active per build; callers must treat it as read-only after Load.
type SiteConfig struct {
	Title                 string             `yaml:"title"`
	Tagline               string             `yaml:"tagline,omitempty"`
	URL                   string             `yaml:"url"`
	BaseURL               string             `yaml:"baseUrl"`
	OnBrokenLinks         BrokenLinkPolicy   `yaml:"onBrokenLinks"`
	OnBrokenMarkdownLinks BrokenLinkPolicy   `yaml:"onBrokenMarkdownLinks"`
	Favicon               string             `yaml:"favicon,omitempty"`
	OrganizationName      string             `yaml:"organizationName,omitempty"`
	ProjectName           string             `yaml:"projectName,omitempty"`
	Presets               []PresetDescriptor `yaml:"presets,omitempty"`
	Plugins               []PluginDescriptor `yaml:"plugins,omitempty"`
	ThemeConfig           ThemeConfig        `yaml:"themeConfig"`
	I18n                  I18nConfig         `yaml:"i18n,omitempty"`
	Landing               *Landing           `yaml:"landing,omitempty"`

	// Resolved from Presets and Plugins during Load.
	Classic *ClassicOptions `yaml:"-"`
	PWA     *PWAOptions     `yaml:"-"`

	// Dir is the directory containing the configuration file; content paths resolve against it.
	Dir string `yaml:"-"`
}

// PresetDescriptor names a bundle of framework behaviors configured together.
type PresetDescriptor struct {
	Name    string    `yaml:"name"`
	Options yaml.Node `yaml:"options,omitempty"`
}

// PluginDescriptor names a plugin and carries its raw options.
type PluginDescriptor struct {
	Name    string    `yaml:"name"`
	Options yaml.Node `yaml:"options,omitempty"`
}

// ClassicOptions are the options of the classic preset (docs, blog, theme, sitemap).
type ClassicOptions struct {
	Docs    *DocsOptions    `yaml:"docs"`
	Blog    *BlogOptions    `yaml:"blog"`
	Theme   ThemeOptions    `yaml:"theme"`
	Sitemap *SitemapOptions `yaml:"sitemap"`
}

type DocsOptions struct {
	Path                 string `yaml:"path"`
	RouteBasePath        string `yaml:"routeBasePath"`
	SidebarPath          string `yaml:"sidebarPath"`
	EditURL              string `yaml:"editUrl"`
	Breadcrumbs          *bool  `yaml:"breadcrumbs"`
	ShowLastUpdateTime   bool   `yaml:"showLastUpdateTime"`
	ShowLastUpdateAuthor bool   `yaml:"showLastUpdateAuthor"`
}

// ShowBreadcrumbs reports whether doc pages render breadcrumbs (default true).
func (d *DocsOptions) ShowBreadcrumbs() bool {
	return d.Breadcrumbs == nil || *d.Breadcrumbs
}

type BlogOptions struct {
	Path            string      `yaml:"path"`
	RouteBasePath   string      `yaml:"routeBasePath"`
	BlogTitle       string      `yaml:"blogTitle"`
	BlogDescription string      `yaml:"blogDescription"`
	ShowReadingTime bool        `yaml:"showReadingTime"`
	EditURL         string      `yaml:"editUrl"`
	PostsPerPage    int         `yaml:"postsPerPage"`
	FeedOptions     FeedOptions `yaml:"feedOptions"`
}

type FeedOptions struct {
	Type string `yaml:"type"` // rss | none
}

type ThemeOptions struct {
	CustomCSS string `yaml:"customCss"`
}

type SitemapOptions struct {
	ChangeFreq string  `yaml:"changefreq"`
	Priority   float64 `yaml:"priority"`
}

// PWAOptions are the options of the PWA plugin.
type PWAOptions struct {
	Debug                           bool                 `yaml:"debug"`
	OfflineModeActivationStrategies []ActivationStrategy `yaml:"offlineModeActivationStrategies"`
	PWAHead                         []HeadTag            `yaml:"pwaHead"`
}

// HeadTag is an HTML head element. Attribute order is preserved as declared.
type HeadTag struct {
	TagName    string
	Attributes []Attribute
}

type Attribute struct {
	Name  string
	Value string
}

// UnmarshalYAML decodes a flat mapping with a tagName key into a HeadTag.
func (h *HeadTag) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: head tag must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: head tag attribute %q must be a scalar", v.Line, k.Value)
		}
		if k.Value == "tagName" {
			h.TagName = v.Value
			continue
		}
		h.Attributes = append(h.Attributes, Attribute{Name: k.Value, Value: v.Value})
	}
	return nil
}

// MarshalYAML writes the tag back as a flat mapping.
func (h HeadTag) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	add := func(k, v string) {
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Value: v})
	}
	add("tagName", h.TagName)
	for _, a := range h.Attributes {
		add(a.Name, a.Value)
	}
	return n, nil
}

// Attr returns the value of the named attribute.
func (h HeadTag) Attr(name string) (string, bool) {
	for _, a := range h.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// ThemeConfig holds navbar, footer, sidebar and search settings.
type ThemeConfig struct {
	Image                         string         `yaml:"image,omitempty"`
	Navbar                        Navbar         `yaml:"navbar"`
	Footer                        *Footer        `yaml:"footer,omitempty"`
	HideableSidebar               bool           `yaml:"hideableSidebar"`
	AutoCollapseSidebarCategories bool           `yaml:"autoCollapseSidebarCategories"`
	Algolia                       *AlgoliaConfig `yaml:"algolia,omitempty"`
}

type Navbar struct {
	Title string       `yaml:"title"`
	Logo  *Logo        `yaml:"logo,omitempty"`
	Items []NavbarItem `yaml:"items"`
}

type Logo struct {
	Alt string `yaml:"alt"`
	Src string `yaml:"src"`
}

// NavbarItem is one entry of the navbar. Order within a position is render-significant.
type NavbarItem struct {
	Type     NavbarItemType `yaml:"type,omitempty"`
	DocID    string         `yaml:"docId,omitempty"`
	Href     string         `yaml:"href,omitempty"`
	To       string         `yaml:"to,omitempty"`
	Label    string         `yaml:"label"`
	Position NavbarPosition `yaml:"position,omitempty"`
}

type Footer struct {
	Style     string         `yaml:"style"`
	Links     []FooterColumn `yaml:"links"`
	Copyright string         `yaml:"copyright"`
}

type FooterColumn struct {
	Title string       `yaml:"title"`
	Items []FooterLink `yaml:"items"`
}

type FooterLink struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
	To    string `yaml:"to"`
	HTML  string `yaml:"html"`
}

// AlgoliaConfig configures the hosted DocSearch index.
type AlgoliaConfig struct {
	AppID            string `yaml:"appId"`
	APIKey           string `yaml:"apiKey"`
	IndexName        string `yaml:"indexName"`
	ContextualSearch bool   `yaml:"contextualSearch"`
}

type I18nConfig struct {
	DefaultLocale string `yaml:"defaultLocale"`
}

// Landing describes the content of the site root page.
type Landing struct {
	Description string    `yaml:"description"`
	Hero        Hero      `yaml:"hero"`
	Features    []Feature `yaml:"features"`
}

type Hero struct {
	LogoSrc  string        `yaml:"logoSrc"`
	LogoAlt  string        `yaml:"logoAlt"`
	Subtitle []TextSegment `yaml:"subtitle"`
	CTA      CallToAction  `yaml:"cta"`
}

// TextSegment is a run of subtitle text, rendered as a link when Href is set.
type TextSegment struct {
	Text string `yaml:"text"`
	Href string `yaml:"href,omitempty"`
}

type CallToAction struct {
	Label string `yaml:"label"`
	To    string `yaml:"to"`
}

// Feature describes one card in the landing page feature grid.
type Feature struct {
	Title       string `yaml:"title"`
	ImageURL    string `yaml:"imageUrl"`
	Description string `yaml:"description,omitempty"`
}
