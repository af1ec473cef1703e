package site

import (
	"github.com/frontedward/dictator/internal/config"
)

type segmentView struct {
	Text string
	Href string
}

type ctaView struct {
	Label string
	Href  string
}

type featureView struct {
	Title       string
	ImageSrc    string
	Description string
}

type landingView struct {
	Title    string
	LogoSrc  string
	LogoAlt  string
	Subtitle []segmentView
	CTA      ctaView
	Features []featureView
}

// RenderLanding renders the site root page from the configuration and the
// landing content alone. A nil landing uses config.DefaultLanding.
//
// Navbar doc items link to routeBasePath/docId since no docs are loaded.
func RenderLanding(cfg *config.SiteConfig, landing *config.Landing) ([]byte, error) {
	r, err := New(cfg, Options{})
	if err != nil {
		return nil, err
	}
	return r.Landing(landing)
}

// Landing renders the hero banner and the feature grid. The page description
// falls back to the site tagline. The grid is omitted when there are no
// features, and a card has a paragraph only when its feature has a description.
func (r *Renderer) Landing(landing *config.Landing) ([]byte, error) {
	if landing == nil {
		landing = config.DefaultLanding()
	}
	hero := landing.Hero
	description := landing.Description
	if description == "" {
		description = r.cfg.Tagline
	}
	v := landingView{
		Title:   r.cfg.Title,
		LogoSrc: r.cfg.WithBaseURL(hero.LogoSrc),
		LogoAlt: hero.LogoAlt,
		CTA:     ctaView{Label: hero.CTA.Label, Href: r.cfg.WithBaseURL(hero.CTA.To)},
	}
	for _, seg := range hero.Subtitle {
		sv := segmentView{Text: seg.Text}
		if seg.Href != "" {
			sv.Href = r.cfg.WithBaseURL(seg.Href)
		}
		v.Subtitle = append(v.Subtitle, sv)
	}
	for _, f := range landing.Features {
		fv := featureView{Title: f.Title, Description: f.Description}
		if f.ImageURL != "" {
			fv.ImageSrc = r.cfg.WithBaseURL(f.ImageURL)
		}
		v.Features = append(v.Features, fv)
	}
	return r.render(page{
		Kind:        kindLanding,
		Title:       r.pageTitle(r.cfg.Title),
		Description: description,
		Canonical:   r.cfg.AbsoluteURL("/"),
		Body:        v,
	})
}
