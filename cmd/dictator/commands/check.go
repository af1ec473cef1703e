package commands

import (
	"github.com/frontedward/dictator/internal/config"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct{}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	g.printf("Configuration OK: %s (%s)\n", cfg.Title, cfg.AbsoluteURL("/"))
	if cfg.DocsEnabled() {
		g.printf("  docs: %s -> /%s\n", cfg.Classic.Docs.Path, cfg.Classic.Docs.RouteBasePath)
	}
	if cfg.BlogEnabled() {
		g.printf("  blog: %s -> /%s\n", cfg.Classic.Blog.Path, cfg.Classic.Blog.RouteBasePath)
	}
	if cfg.PWA != nil {
		g.printf("  pwa: enabled\n")
	}
	return nil
}
