// Package commands implements the dictator command line.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/frontedward/dictator/internal/config"
	"github.com/frontedward/dictator/internal/observability"
)

// Global is shared state passed to every command.
type Global struct {
	Logger *slog.Logger
	// Out receives user-facing output. Nil means stdout.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Global) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(g.out(), format, args...)
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"${config_default}" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Build the site into an output directory"`
	Serve ServeCmd `cmd:"" help:"Preview the site with live reload"`
	Check CheckCmd `cmd:"" help:"Load and validate the configuration only"`
	Init  InitCmd  `cmd:"" help:"Write an example configuration file"`
}

// Vars are the interpolation variables the CLI struct tags need.
func Vars() kong.Vars {
	return kong.Vars{"config_default": config.DefaultPath}
}

// AfterApply runs after flag parsing; it sets up logging once.
func (c *CLI) AfterApply(g *Global) error {
	logger := observability.NewLogger(os.Stderr, observability.ParseLevel(c.Verbose))
	slog.SetDefault(logger)
	g.Logger = logger
	return nil
}
