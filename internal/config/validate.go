package config

import (
	"fmt"
	"net/url"
	"strings"

	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
)

// ValidateConfig checks a normalized, defaulted configuration.
// The first violation is returned as a fatal configuration error.
func ValidateConfig(c *SiteConfig) error {
	v := &configurationValidator{config: c}
	return v.validate()
}

type configurationValidator struct {
	config *SiteConfig
}

func (cv *configurationValidator) validate() error {
	for _, step := range []func() error{
		cv.validateSite,
		cv.validateNavbar,
		cv.validateFooter,
		cv.validateSearch,
		cv.validateClassic,
		cv.validatePWA,
		cv.validateLanding,
	} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateSite() error {
	c := cv.config
	if strings.TrimSpace(c.Title) == "" {
		return missingKey("title")
	}
	if strings.TrimSpace(c.URL) == "" {
		return missingKey("url")
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ferrors.ConfigError("url must be an absolute http(s) URL").
			WithContext("key", "url").WithContext("value", c.URL).Build()
	}
	if u.Path != "" && u.Path != "/" {
		return ferrors.ConfigError("url must not contain a path; use baseUrl").
			WithContext("key", "url").WithContext("value", c.URL).Build()
	}
	return nil
}

func (cv *configurationValidator) validateNavbar() error {
	for i, item := range cv.config.ThemeConfig.Navbar.Items {
		field := fmt.Sprintf("themeConfig.navbar.items[%d]", i)
		if strings.TrimSpace(item.Label) == "" {
			return missingKey(field + ".label")
		}
		switch item.Type {
		case NavbarItemDoc:
			if item.DocID == "" {
				return missingKey(field + ".docId")
			}
		case NavbarItemLink:
			if item.Href == "" && item.To == "" {
				return missingKey(field + ".href")
			}
		}
	}
	return nil
}

func (cv *configurationValidator) validateFooter() error {
	f := cv.config.ThemeConfig.Footer
	if f == nil {
		return nil
	}
	if f.Style != "" && f.Style != "dark" && f.Style != "light" {
		return ferrors.ConfigError("invalid configuration value").
			WithContext("key", "themeConfig.footer.style").WithContext("value", f.Style).Build()
	}
	for i, col := range f.Links {
		for j, l := range col.Items {
			if l.HTML != "" {
				continue
			}
			field := fmt.Sprintf("themeConfig.footer.links[%d].items[%d]", i, j)
			if l.Label == "" {
				return missingKey(field + ".label")
			}
			if l.Href == "" && l.To == "" {
				return missingKey(field + ".href")
			}
		}
	}
	return nil
}

func (cv *configurationValidator) validateSearch() error {
	a := cv.config.ThemeConfig.Algolia
	if a == nil {
		return nil
	}
	if a.AppID == "" {
		return missingKey("themeConfig.algolia.appId")
	}
	if a.APIKey == "" {
		return missingKey("themeConfig.algolia.apiKey")
	}
	if a.IndexName == "" {
		return missingKey("themeConfig.algolia.indexName")
	}
	return nil
}

func (cv *configurationValidator) validateClassic() error {
	c := cv.config.Classic
	if c == nil {
		return nil
	}
	if c.Blog.PostsPerPage < 1 {
		return ferrors.ConfigError("invalid configuration value").
			WithContext("key", "blog.postsPerPage").WithContext("value", c.Blog.PostsPerPage).Build()
	}
	if c.Sitemap.Priority < 0 || c.Sitemap.Priority > 1 {
		return ferrors.ConfigError("invalid configuration value").
			WithContext("key", "sitemap.priority").WithContext("value", c.Sitemap.Priority).Build()
	}
	if c.Docs.RouteBasePath == c.Blog.RouteBasePath {
		return ferrors.ConfigError("docs and blog routeBasePath must differ").
			WithContext("value", c.Docs.RouteBasePath).Build()
	}
	return nil
}

func (cv *configurationValidator) validatePWA() error {
	p := cv.config.PWA
	if p == nil {
		return nil
	}
	for i, tag := range p.PWAHead {
		field := fmt.Sprintf("pwa.pwaHead[%d]", i)
		if tag.TagName != "link" && tag.TagName != "meta" {
			return ferrors.ConfigError("head tag must be link or meta").
				WithContext("key", field+".tagName").WithContext("value", tag.TagName).Build()
		}
		if len(tag.Attributes) == 0 {
			return ferrors.ConfigError("head tag has no attributes").WithContext("key", field).Build()
		}
	}
	return nil
}

func (cv *configurationValidator) validateLanding() error {
	for i, f := range cv.config.Landing.Features {
		field := fmt.Sprintf("landing.features[%d]", i)
		if strings.TrimSpace(f.Title) == "" {
			return missingKey(field + ".title")
		}
	}
	return nil
}

func missingKey(key string) error {
	return ferrors.ConfigError("missing required configuration key").WithContext("key", key).Build()
}
