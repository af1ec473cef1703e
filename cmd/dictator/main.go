package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/frontedward/dictator/cmd/dictator/commands"
	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
	"github.com/frontedward/dictator/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{}
	ctx := kong.Parse(cli,
		kong.Name("dictator"),
		kong.Description("Build and preview the Dictator documentation site"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		commands.Vars(),
		kong.Bind(global),
	)
	if err := ctx.Run(cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
