// Package linkverify checks that internal links of generated pages resolve to
// published files and applies the configured broken link policies.
package linkverify

import (
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/frontedward/dictator/internal/config"
	"github.com/frontedward/dictator/internal/foundation/errors"
	"github.com/frontedward/dictator/internal/logfields"
)

// FileSet answers whether a slash-separated output path exists.
type FileSet interface {
	Has(rel string) bool
}

// BrokenLink is an internal link that resolves to nothing.
type BrokenLink struct {
	Page string // output path of the page containing the link
	URL  string
	Tag  string
}

// Verifier resolves links found in pages against the published files.
type Verifier struct {
	host    string
	baseURL string
	files   FileSet
}

// NewVerifier creates a verifier for the site described by cfg.
func NewVerifier(cfg *config.SiteConfig, files FileSet) (*Verifier, error) {
	site, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "invalid site url").WithContext("url", cfg.URL).Build()
	}
	return &Verifier{host: site.Host, baseURL: cfg.BaseURL, files: files}, nil
}

// VerifyPage returns the broken internal links of one HTML page.
func (v *Verifier) VerifyPage(page string, content []byte) ([]BrokenLink, error) {
	links, err := ExtractLinks(content)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryLinks, "failed to scan page").WithContext(logfields.KeyPath, page).Build()
	}
	var broken []BrokenLink
	for _, l := range links {
		if !ShouldVerifyLink(l) {
			continue
		}
		if !v.resolves(page, l.URL) {
			broken = append(broken, BrokenLink{Page: page, URL: l.URL, Tag: l.Tag})
		}
	}
	return broken, nil
}

// VerifyAll checks every page, returning broken links ordered by page then URL.
func (v *Verifier) VerifyAll(pages map[string][]byte) ([]BrokenLink, error) {
	var all []BrokenLink
	for page, content := range pages {
		broken, err := v.VerifyPage(page, content)
		if err != nil {
			return nil, err
		}
		all = append(all, broken...)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Page != all[j].Page {
			return all[i].Page < all[j].Page
		}
		return all[i].URL < all[j].URL
	})
	return all, nil
}

func (v *Verifier) resolves(page, raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if u.Scheme != "" || u.Host != "" {
		if u.Host != v.host || (u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https") {
			// External links are not verified.
			return true
		}
	}

	target := u.Path
	if target == "" {
		// Query-only reference to the page itself.
		return true
	}
	if !strings.HasPrefix(target, "/") {
		target = path.Join(v.baseURL, path.Dir(page), target)
		if strings.HasSuffix(u.Path, "/") {
			target += "/"
		}
	}

	if target+"/" == v.baseURL {
		target = v.baseURL
	}
	if !strings.HasPrefix(target, v.baseURL) {
		return false
	}
	rel := strings.TrimPrefix(target, v.baseURL)
	return v.exists(rel)
}

func (v *Verifier) exists(rel string) bool {
	if rel == "" || strings.HasSuffix(rel, "/") {
		return v.files.Has(rel + "index.html")
	}
	return v.files.Has(rel) || v.files.Has(rel+"/index.html") || v.files.Has(rel+".html")
}

// ApplyPolicy reports broken links according to policy. kind names the link
// family in messages ("links" or "markdown links"). throw yields a LinkError,
// the other policies only log. The returned strings are report warnings.
func ApplyPolicy(policy config.BrokenLinkPolicy, kind string, broken []BrokenLink) ([]string, error) {
	if len(broken) == 0 || policy == config.PolicyIgnore {
		return nil, nil
	}

	messages := make([]string, 0, len(broken))
	for _, b := range broken {
		messages = append(messages, fmt.Sprintf("broken %s: %s -> %s", strings.TrimSuffix(kind, "s"), b.Page, b.URL))
	}

	switch policy {
	case config.PolicyThrow:
		return nil, errors.LinkError(fmt.Sprintf("found %d broken %s", len(broken), kind)).
			WithContext(logfields.KeyPolicy, string(policy)).
			WithContext(logfields.KeyCount, len(broken)).
			WithContext("first", broken[0].Page+" -> "+broken[0].URL).
			Build()
	case config.PolicyLog:
		for _, b := range broken {
			slog.Info("Broken "+strings.TrimSuffix(kind, "s"), logfields.Path(b.Page), logfields.Href(b.URL))
		}
		return nil, nil
	default:
		for _, b := range broken {
			slog.Warn("Broken "+strings.TrimSuffix(kind, "s"), logfields.Path(b.Page), logfields.Href(b.URL), logfields.Policy(string(policy)))
		}
		return messages, nil
	}
}
