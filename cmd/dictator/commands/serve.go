package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frontedward/dictator/internal/server"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Host         string        `help:"Interface to listen on" default:"localhost"`
	Port         int           `short:"p" help:"Port to listen on" default:"3000"`
	Output       string        `short:"o" help:"Directory for preview builds (default: temporary)" type:"path"`
	RebuildEvery time.Duration `name:"rebuild-every" help:"Rebuild periodically, e.g. 1h (0 disables)"`
	NoDrafts     bool          `name:"no-drafts" help:"Hide docs and posts marked as draft"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(server.Options{
		ConfigPath:    root.Config,
		Host:          s.Host,
		Port:          s.Port,
		OutputDir:     s.Output,
		RebuildEvery:  s.RebuildEvery,
		IncludeDrafts: !s.NoDrafts,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
