package config

import (
	"errors"
	"fmt"
	"strings"

	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
	"github.com/frontedward/dictator/internal/foundation/normalization"
)

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

func (r *NormalizationResult) warn(msg string) {
	if msg != "" {
		r.Warnings = append(r.Warnings, msg)
	}
}

var (
	policyNormalizer   = normalization.NewEnumNormalizer("broken link policy", PolicyIgnore, PolicyLog, PolicyWarn, PolicyThrow)
	itemTypeNormalizer = normalization.NewEnumNormalizer("navbar item type", NavbarItemDoc, NavbarItemLink)
	positionNormalizer = normalization.NewEnumNormalizer("navbar position", PositionLeft, PositionRight)
	strategyNormalizer = normalization.NewEnumNormalizer("offline mode activation strategy",
		StrategyAppInstalled, StrategyStandalone, StrategyQueryString, StrategyMobile, StrategySaveData, StrategyAlways)
	feedTypeNormalizer = normalization.NewEnumNormalizer("feed type", "rss", "none")
)

// NormalizeConfig canonicalizes enumerated fields and URL shapes prior to default application.
// It mutates the provided config in-place. Unknown enum values are fatal configuration errors.
func NormalizeConfig(c *SiteConfig) (*NormalizationResult, error) {
	if c == nil {
		return nil, ferrors.InternalError("config nil").Build()
	}
	res := &NormalizationResult{}

	if err := normalizePolicy("onBrokenLinks", &c.OnBrokenLinks, res); err != nil {
		return nil, err
	}
	if err := normalizePolicy("onBrokenMarkdownLinks", &c.OnBrokenMarkdownLinks, res); err != nil {
		return nil, err
	}
	normalizeBaseURL(c, res)

	for i := range c.ThemeConfig.Navbar.Items {
		if err := normalizeNavbarItem(i, &c.ThemeConfig.Navbar.Items[i], res); err != nil {
			return nil, err
		}
	}
	if c.Classic != nil {
		if err := normalizeClassic(c.Classic, res); err != nil {
			return nil, err
		}
		if c.Classic.Blog != nil && c.Classic.Blog.FeedOptions.Type != "" {
			v, w, err := feedTypeNormalizer.NormalizeWithWarning("blog.feedOptions.type", c.Classic.Blog.FeedOptions.Type)
			if err != nil {
				return nil, invalidValue("blog.feedOptions.type", c.Classic.Blog.FeedOptions.Type, err)
			}
			res.warn(w)
			c.Classic.Blog.FeedOptions.Type = v
		}
	}
	if c.PWA != nil {
		for i, s := range c.PWA.OfflineModeActivationStrategies {
			field := fmt.Sprintf("pwa.offlineModeActivationStrategies[%d]", i)
			v, w, err := strategyNormalizer.NormalizeWithWarning(field, string(s))
			if err != nil {
				return nil, invalidValue(field, string(s), err)
			}
			res.warn(w)
			c.PWA.OfflineModeActivationStrategies[i] = v
		}
	}
	return res, nil
}

func normalizePolicy(field string, p *BrokenLinkPolicy, res *NormalizationResult) error {
	if strings.TrimSpace(string(*p)) == "" {
		*p = ""
		return nil
	}
	v, w, err := policyNormalizer.NormalizeWithWarning(field, string(*p))
	if err != nil {
		return invalidValue(field, string(*p), err)
	}
	res.warn(w)
	*p = v
	return nil
}

func normalizeBaseURL(c *SiteConfig, res *NormalizationResult) {
	b := strings.TrimSpace(c.BaseURL)
	if b == "" {
		c.BaseURL = "/"
		return
	}
	orig := b
	if !strings.HasPrefix(b, "/") {
		b = "/" + b
	}
	if !strings.HasSuffix(b, "/") {
		b += "/"
	}
	if b != orig {
		res.warn(fmt.Sprintf("normalized baseUrl from '%s' to '%s'", orig, b))
	}
	c.BaseURL = b
}

func normalizeNavbarItem(i int, item *NavbarItem, res *NormalizationResult) error {
	field := fmt.Sprintf("themeConfig.navbar.items[%d]", i)
	switch strings.TrimSpace(string(item.Type)) {
	case "":
		if item.DocID != "" {
			item.Type = NavbarItemDoc
		} else {
			item.Type = NavbarItemLink
		}
	case "default":
		item.Type = NavbarItemLink
	default:
		v, w, err := itemTypeNormalizer.NormalizeWithWarning(field+".type", string(item.Type))
		if err != nil {
			return invalidValue(field+".type", string(item.Type), err)
		}
		res.warn(w)
		item.Type = v
	}
	if strings.TrimSpace(string(item.Position)) == "" {
		item.Position = PositionLeft
		return nil
	}
	v, w, err := positionNormalizer.NormalizeWithWarning(field+".position", string(item.Position))
	if err != nil {
		return invalidValue(field+".position", string(item.Position), err)
	}
	res.warn(w)
	item.Position = v
	return nil
}

func normalizeClassic(c *ClassicOptions, res *NormalizationResult) error {
	if c.Docs != nil {
		r, err := trimRoute("docs.routeBasePath", c.Docs.RouteBasePath, res)
		if err != nil {
			return err
		}
		c.Docs.RouteBasePath = r
	}
	if c.Blog != nil {
		r, err := trimRoute("blog.routeBasePath", c.Blog.RouteBasePath, res)
		if err != nil {
			return err
		}
		c.Blog.RouteBasePath = r
	}
	return nil
}

// trimRoute strips surrounding slashes. A route that names the site root is
// rejected: the landing page owns "/".
func trimRoute(field, v string, res *NormalizationResult) (string, error) {
	t := strings.Trim(strings.TrimSpace(v), "/")
	if t == "" && strings.TrimSpace(v) != "" {
		return "", invalidValue(field, v, errors.New("the site root is reserved for the landing page"))
	}
	if v != "" && t != v {
		res.warn(fmt.Sprintf("normalized %s from '%s' to '%s'", field, v, t))
	}
	return t, nil
}

func invalidValue(field, value string, cause error) error {
	return ferrors.ConfigError("invalid configuration value").
		WithContext("key", field).
		WithContext("value", value).
		WithCause(cause).
		Build()
}
