package cli

import (
	"github.com/smallbiznis/fiberdesk/internal/document"
	"github.com/smallbiznis/fiberdesk/internal/invoiceline"
	"github.com/smallbiznis/fiberdesk/internal/server"
	"github.com/smallbiznis/fiberdesk/internal/wizard"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := newApp(
				invoiceline.Module,
				document.Module,
				wizard.Module,
				server.Module,
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}
