// Command actiond serves the registered actions over HTTP and WebSocket.
//
//	actiond serve --config actiond.toml
//	actiond actions
//	actiond init-config actiond.toml
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/actionwire/internal/observability"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// populated by ldflags
var (
	version = "dev"
	commit  = "none"
)

func main() {
	observability.InitLogger("actiond")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("actiond failed")
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "actiond",
		Short:         "Serve registered actions to remote callers",
		Version:       version + " (" + commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(buildServeCmd(), buildActionsCmd(), buildInitConfigCmd())
	return root
}
