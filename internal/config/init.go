package config

import (
	"errors"
	"os"

	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
)

// ExampleConfig is the configuration written by Init. It describes the Dictator site.
const ExampleConfig = `title: Dictator
tagline: JavaScript, React, TypeScript, Node.js, Express, Prisma, GraphQL, Docker
url: https://frontedward.github.io
baseUrl: /
onBrokenLinks: throw
onBrokenMarkdownLinks: warn
favicon: img/logo1.png
organizationName: frontedward
projectName: Dictator

presets:
  - name: classic
    options:
      docs:
        sidebarPath: sidebars.yaml
        editUrl: https://github.com/frontedward/dictator
        breadcrumbs: false
      blog:
        blogTitle: Блог по веб-разработке
        blogDescription: Блог по разработке приложений на JavaScript, React, TypeScript, Node.js и других технологиях
        showReadingTime: true
        editUrl: https://github.com/frontedward/dictator
      theme:
        customCss: src/css/custom.css

plugins:
  - name: "@docusaurus/plugin-pwa"
    options:
      debug: true
      offlineModeActivationStrategies: [appInstalled, standalone, queryString]
      pwaHead:
        - {tagName: link, rel: icon, href: /img/logo.png}
        - {tagName: link, rel: manifest, href: /manifest.json}
        - {tagName: meta, name: theme-color, content: "#3c3c3c"}
        - {tagName: meta, name: apple-mobile-web-app-capable, content: "yes"}
        - {tagName: meta, name: apple-mobile-web-app-status-bar-style, content: "#3c3c3c"}
        - {tagName: link, rel: apple-touch-icon, href: /img/logo.png}
        - {tagName: link, rel: mask-icon, href: /img/logo.png, color: "#3c3c3c"}
        - {tagName: meta, name: msapplication-TileImage, content: /img/logo.png}
        - {tagName: meta, name: msapplication-TileColor, content: "#3c3c3c"}

themeConfig:
  image: img/logo1.png
  navbar:
    title: Dictator
    logo:
      alt: Dictator Logo
      src: img/logo1.png
    items:
      - {type: doc, docId: guide/intro-guide, position: left, label: Руководства}
      - {type: doc, docId: cheatsheet/intro-cheatsheet, position: left, label: Шпаргалки}
      - {type: doc, docId: other/intro-other, position: left, label: Другое}
      - {href: "https://github.com/frontedward", label: GitHub, position: right}
  hideableSidebar: true
  autoCollapseSidebarCategories: true
  algolia:
    appId: K9EMNI09N5
    apiKey: ${ALGOLIA_SEARCH_API_KEY}
    indexName: my-js
    contextualSearch: true
`

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "stat configuration file").Build()
	}
	if err := os.WriteFile(configPath, []byte(ExampleConfig), 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).Build()
	}
	return nil
}
