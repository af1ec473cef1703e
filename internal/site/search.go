package site

import (
	"strings"

	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
	"github.com/frontedward/dictator/internal/search"
)

type searchView struct {
	Action       string
	Param        string
	Endpoint     string
	AppID        string
	APIKey       string
	FacetFilters string
}

// SearchPage renders the results page behind the OpenSearch description. The
// theme script reads the query from the URL and asks the Algolia index.
func (r *Renderer) SearchPage() ([]byte, error) {
	if r.search == nil {
		return nil, ferrors.InternalError("search page requested without algolia settings").Build()
	}
	v := searchView{
		Action:       r.href(search.Route),
		Param:        search.QueryParam,
		Endpoint:     r.search.QueryEndpoint(),
		AppID:        r.search.AppID,
		APIKey:       r.search.APIKey,
		FacetFilters: strings.Join(r.search.FacetFilters, ","),
	}
	return r.render(page{
		Kind:      kindSearch,
		Title:     r.pageTitle("Search"),
		Canonical: r.cfg.AbsoluteURL(search.Route),
		Body:      v,
	})
}
