// Package search renders the Algolia DocSearch integration for generated pages.
package search

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html/template"
	"net/url"

	"github.com/frontedward/dictator/internal/config"
)

// DocSearch asset locations and the search page route.
const (
	StylesheetURL = "https://cdn.jsdelivr.net/npm/@docsearch/css@3"
	ScriptURL     = "https://cdn.jsdelivr.net/npm/@docsearch/js@3"
	// ContainerID is the element the search button is mounted into.
	ContainerID = "docsearch"
	// OpenSearchFile is the browser search description published with the site.
	OpenSearchFile = "opensearch.xml"
	// Route is the search results page the OpenSearch template points at.
	Route = "/search"
	// QueryParam carries the search terms on Route.
	QueryParam = "q"
)

// DocSearch holds the resolved search settings of a site.
type DocSearch struct {
	AppID        string
	APIKey       string
	IndexName    string
	FacetFilters []string
	preconnect   string
	siteTitle    string
	openSearch   string
}

// New returns the DocSearch settings for cfg, or nil when search is not configured.
func New(cfg *config.SiteConfig) *DocSearch {
	a := cfg.ThemeConfig.Algolia
	if a == nil {
		return nil
	}
	ds := &DocSearch{
		AppID:      a.AppID,
		APIKey:     a.APIKey,
		IndexName:  a.IndexName,
		preconnect: fmt.Sprintf("https://%s-dsn.algolia.net", a.AppID),
		siteTitle:  cfg.Title,
		openSearch: cfg.WithBaseURL(OpenSearchFile),
	}
	if a.ContextualSearch {
		ds.FacetFilters = FacetFilters(cfg.I18n.DefaultLocale)
	}
	return ds
}

// QueryEndpoint is the Algolia query URL the search page posts to.
func (d *DocSearch) QueryEndpoint() string {
	return d.preconnect + "/1/indexes/" + url.PathEscape(d.IndexName) + "/query"
}

// FacetFilters are the contextual search filters for a locale.
func FacetFilters(locale string) []string {
	return []string{"language:" + locale, "docusaurus_tag:default"}
}

// Head returns the tags placed in <head>: a preconnect hint, the stylesheet
// and the OpenSearch description link.
func (d *DocSearch) Head() template.HTML {
	if d == nil {
		return ""
	}
	return template.HTML(fmt.Sprintf( //nolint:gosec // values are escaped below
		`<link rel="preconnect" href="%s" crossorigin>`+"\n"+
			`<link rel="stylesheet" href="%s">`+"\n"+
			`<link rel="search" type="application/opensearchdescription+xml" title="%s" href="%s">`,
		template.HTMLEscapeString(d.preconnect), StylesheetURL,
		template.HTMLEscapeString(d.siteTitle), template.HTMLEscapeString(d.openSearch)))
}

type initOptions struct {
	Container        string            `json:"container"`
	AppID            string            `json:"appId"`
	APIKey           string            `json:"apiKey"`
	IndexName        string            `json:"indexName"`
	SearchParameters *searchParameters `json:"searchParameters,omitempty"`
}

type searchParameters struct {
	FacetFilters []string `json:"facetFilters"`
}

// Options returns the JSON object passed to docsearch().
func (d *DocSearch) Options() ([]byte, error) {
	opts := initOptions{
		Container: "#" + ContainerID,
		AppID:     d.AppID,
		APIKey:    d.APIKey,
		IndexName: d.IndexName,
	}
	if len(d.FacetFilters) > 0 {
		opts.SearchParameters = &searchParameters{FacetFilters: d.FacetFilters}
	}
	return json.Marshal(opts)
}

// Script returns the script tags placed at the end of <body>.
func (d *DocSearch) Script() (template.HTML, error) {
	if d == nil {
		return "", nil
	}
	opts, err := d.Options()
	if err != nil {
		return "", fmt.Errorf("encode docsearch options: %w", err)
	}
	// json.Marshal escapes <, > and & so the object is safe inside <script>.
	return template.HTML(fmt.Sprintf( //nolint:gosec // JSON-encoded options
		`<script src="%s"></script>`+"\n"+`<script>docsearch(%s);</script>`, ScriptURL, opts)), nil
}

type openSearchDescription struct {
	XMLName       xml.Name      `xml:"OpenSearchDescription"`
	XMLNS         string        `xml:"xmlns,attr"`
	XMLNSMoz      string        `xml:"xmlns:moz,attr"`
	ShortName     string        `xml:"ShortName"`
	Description   string        `xml:"Description"`
	InputEncoding string        `xml:"InputEncoding"`
	URL           openSearchURL `xml:"Url"`
	SearchForm    string        `xml:"moz:SearchForm"`
}

type openSearchURL struct {
	Type     string `xml:"type,attr"`
	Method   string `xml:"method,attr"`
	Template string `xml:"template,attr"`
}

// OpenSearch renders the OpenSearch description that lets browsers add the
// site as a search engine.
func OpenSearch(cfg *config.SiteConfig) ([]byte, error) {
	home := cfg.AbsoluteURL("/")
	doc := openSearchDescription{
		XMLNS:         "http://a9.com/-/spec/opensearch/1.1/",
		XMLNSMoz:      "http://www.mozilla.org/2006/browser/search/",
		ShortName:     cfg.Title,
		Description:   "Search " + cfg.Title,
		InputEncoding: "UTF-8",
		URL: openSearchURL{
			Type:     "text/html",
			Method:   "get",
			Template: cfg.AbsoluteURL(Route) + "?" + QueryParam + "={searchTerms}",
		},
		SearchForm: home,
	}
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode opensearch description: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}
