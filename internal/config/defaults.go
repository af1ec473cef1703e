package config

// Default values applied after normalization.
const (
	DefaultDocsPath      = "docs"
	DefaultBlogPath      = "blog"
	DefaultPostsPerPage  = 10
	DefaultLocale        = "en"
	DefaultChangeFreq    = "weekly"
	DefaultSitemapWeight = 0.5
)

// DefaultActivationStrategies mirrors the PWA plugin defaults.
var DefaultActivationStrategies = []ActivationStrategy{StrategyAppInstalled, StrategyQueryString, StrategyStandalone}

func applyDefaults(c *SiteConfig) {
	if c.OnBrokenLinks == "" {
		c.OnBrokenLinks = PolicyThrow
	}
	if c.OnBrokenMarkdownLinks == "" {
		c.OnBrokenMarkdownLinks = PolicyWarn
	}
	if c.I18n.DefaultLocale == "" {
		c.I18n.DefaultLocale = DefaultLocale
	}
	if c.Classic != nil {
		applyClassicDefaults(c.Classic)
	}
	if c.PWA != nil && len(c.PWA.OfflineModeActivationStrategies) == 0 {
		c.PWA.OfflineModeActivationStrategies = append([]ActivationStrategy(nil), DefaultActivationStrategies...)
	}
	if c.Landing == nil {
		c.Landing = DefaultLanding()
	}
}

func applyClassicDefaults(c *ClassicOptions) {
	if c.Docs == nil {
		c.Docs = &DocsOptions{}
	}
	if c.Docs.Path == "" {
		c.Docs.Path = DefaultDocsPath
	}
	if c.Docs.RouteBasePath == "" {
		c.Docs.RouteBasePath = DefaultDocsPath
	}

	if c.Blog == nil {
		c.Blog = &BlogOptions{}
	}
	if c.Blog.Path == "" {
		c.Blog.Path = DefaultBlogPath
	}
	if c.Blog.RouteBasePath == "" {
		c.Blog.RouteBasePath = DefaultBlogPath
	}
	if c.Blog.PostsPerPage == 0 {
		c.Blog.PostsPerPage = DefaultPostsPerPage
	}
	if c.Blog.BlogTitle == "" {
		c.Blog.BlogTitle = "Blog"
	}
	if c.Blog.FeedOptions.Type == "" {
		c.Blog.FeedOptions.Type = "rss"
	}

	if c.Sitemap == nil {
		c.Sitemap = &SitemapOptions{}
	}
	if c.Sitemap.ChangeFreq == "" {
		c.Sitemap.ChangeFreq = DefaultChangeFreq
	}
	if c.Sitemap.Priority == 0 {
		c.Sitemap.Priority = DefaultSitemapWeight
	}
}

// DefaultLanding returns the landing page content of the Dictator site. Its
// description is left empty so the page falls back to the site tagline.
func DefaultLanding() *Landing {
	return &Landing{
		Hero: Hero{
			LogoSrc: "img/logo1.png",
			LogoAlt: "Dictator logo",
			Subtitle: []TextSegment{
				{Text: "Руководства", Href: "docs/guide/intro-guide"},
				{Text: ", "},
				{Text: "шпаргалки", Href: "docs/cheatsheet/intro-cheatsheet"},
				{Text: ", "},
				{Text: "вопросы и другие материалы", Href: "docs/other/intro-other"},
				{Text: " по JavaScript, TypeScript, React, Next.js, Node.js, Express, Prisma, GraphQL, Docker и другим технологиям, а также "},
				{Text: "Блог по веб-разработке", Href: "blog"},
				{Text: "."},
			},
			CTA: CallToAction{Label: "Поехали!", To: "docs/guide/intro-guide"},
		},
		Features: DefaultFeatures(),
	}
}

// DefaultFeatures is the static feature list of the landing page.
func DefaultFeatures() []Feature {
	return []Feature{
		{Title: "JavaScript", ImageURL: "img/logo.webp"},
		{Title: "React", ImageURL: "img/react.webp"},
		{Title: "TypeScript", ImageURL: "img/ts.webp"},
		{Title: "Node.js", ImageURL: "img/nodejs.webp"},
		{Title: "And More", ImageURL: "img/coding.webp"},
	}
}
