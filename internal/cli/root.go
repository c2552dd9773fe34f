// Package cli wires the fiberdesk commands.
package cli

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fiberdesk/internal/clock"
	"github.com/smallbiznis/fiberdesk/internal/config"
	"github.com/smallbiznis/fiberdesk/internal/observability"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewRootCommand builds the fiberdesk command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "fiberdesk",
		Short:         "Back-office core for invoice lines and business documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCommand(),
		newRenderCommand(),
		newSyncCommand(),
	)
	return root
}

// newApp assembles the shared infrastructure plus the given modules.
func newApp(modules ...fx.Option) *fx.App {
	opts := []fx.Option{
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		config.Module,
		observability.Module,
		clock.Module,
		fx.Provide(RegisterSnowflake),
	}
	return fx.New(append(opts, modules...)...)
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
