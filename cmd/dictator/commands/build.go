package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/frontedward/dictator/internal/build"
	"github.com/frontedward/dictator/internal/config"
	"github.com/frontedward/dictator/internal/logfields"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Output directory for the generated site" default:"./build" type:"path"`
	Drafts bool   `help:"Include docs and posts marked as draft"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return RunBuild(ctx, g, root.Config, b.Output, b.Drafts)
}

// RunBuild loads the configuration and publishes one build to outputDir.
func RunBuild(ctx context.Context, g *Global, configPath, outputDir string, drafts bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if g.Logger != nil {
		g.Logger.Info("Starting site build", logfields.Path(outputDir))
	}
	report, err := build.New(cfg, build.Options{OutputDir: outputDir, IncludeDrafts: drafts}).Build(ctx)
	if report != nil {
		for _, w := range report.Warnings {
			g.printf("warning: %s\n", w)
		}
		g.printf("%s\n", report.Summary())
	}
	if err != nil {
		return err
	}
	g.printf("Site written to %s\n", report.OutputDir)
	return nil
}
