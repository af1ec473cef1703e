package build

import (
	"path"
	"sort"
	"strings"

	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
	"github.com/frontedward/dictator/internal/logfields"
)

// Output is the generated site held in memory, keyed by slash-separated path
// relative to the site root.
type Output struct {
	files  map[string][]byte
	routes map[string]string // page route -> output path
}

func newOutput() *Output {
	return &Output{files: map[string][]byte{}, routes: map[string]string{}}
}

// PagePath maps a page route to its output file: "/" is index.html and
// "/docs/intro" is docs/intro/index.html.
func PagePath(route string) string {
	r := strings.Trim(path.Clean("/"+route), "/")
	if r == "" {
		return "index.html"
	}
	return r + "/index.html"
}

// Add stores a file, replacing any previous content.
func (o *Output) Add(rel string, data []byte) {
	o.files[strings.TrimPrefix(path.Clean("/"+rel), "/")] = data
}

// AddPage stores the HTML of a page route. Two sources claiming the same route is a build error.
func (o *Output) AddPage(route string, html []byte) error {
	rel := PagePath(route)
	if _, taken := o.files[rel]; taken {
		return ferrors.BuildError("two pages render to the same route").
			WithContext(logfields.KeyRoute, route).
			WithContext(logfields.KeyPath, rel).
			Build()
	}
	o.files[rel] = html
	o.routes[route] = rel
	return nil
}

// Has reports whether rel was generated.
func (o *Output) Has(rel string) bool {
	_, ok := o.files[rel]
	return ok
}

// Get returns the content of rel.
func (o *Output) Get(rel string) ([]byte, bool) {
	data, ok := o.files[rel]
	return data, ok
}

// Files returns every generated file.
func (o *Output) Files() map[string][]byte {
	return o.files
}

// Pages returns the HTML files, 404.html included.
func (o *Output) Pages() map[string][]byte {
	pages := map[string][]byte{}
	for rel, data := range o.files {
		if strings.HasSuffix(rel, ".html") {
			pages[rel] = data
		}
	}
	return pages
}

// Routes returns the page routes in sorted order.
func (o *Output) Routes() []string {
	routes := make([]string, 0, len(o.routes))
	for r := range o.routes {
		routes = append(routes, r)
	}
	sort.Strings(routes)
	return routes
}

// Len is the number of generated files.
func (o *Output) Len() int { return len(o.files) }
