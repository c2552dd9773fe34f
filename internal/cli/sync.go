package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/smallbiznis/fiberdesk/internal/invoiceline"
	linedomain "github.com/smallbiznis/fiberdesk/internal/invoiceline/domain"
	lineservice "github.com/smallbiznis/fiberdesk/internal/invoiceline/service"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"
)

type lineSyncer interface {
	Snapshot(ctx context.Context, invoiceID int64) ([]linedomain.ExistingLine, error)
	Plan(existing []linedomain.ExistingLine, desired []linedomain.Line) ([]linedomain.Operation, error)
	Sync(ctx context.Context, invoiceID int64, existing []linedomain.ExistingLine, desired []linedomain.Line) (linedomain.Report, error)
}

type linesInput struct {
	Lines []linedomain.Line `yaml:"lines"`
}

func newSyncCommand() *cobra.Command {
	var (
		invoiceID int64
		input     string
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Bring an invoice's remote lines in line with a YAML list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lines, err := loadLines(input)
			if err != nil {
				return err
			}

			var svc *lineservice.Service
			app := newApp(invoiceline.Module, fx.Populate(&svc))
			ctx := cmd.Context()
			if err := app.Start(ctx); err != nil {
				return err
			}
			defer func() { _ = app.Stop(context.WithoutCancel(ctx)) }()

			return runSync(ctx, cmd.OutOrStdout(), svc, invoiceID, lines, dryRun)
		},
	}

	cmd.Flags().Int64Var(&invoiceID, "invoice", 0, "remote invoice identifier")
	cmd.Flags().StringVar(&input, "input", "", "YAML file with the desired lines")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the operations without running them")
	_ = cmd.MarkFlagRequired("invoice")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func loadLines(path string) ([]linedomain.Line, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var in linesInput
	if err := yaml.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i := range in.Lines {
		in.Lines[i].Recompute()
	}
	return in.Lines, nil
}

func runSync(ctx context.Context, out io.Writer, svc lineSyncer, invoiceID int64, lines []linedomain.Line, dryRun bool) error {
	existing, err := svc.Snapshot(ctx, invoiceID)
	if err != nil {
		return err
	}

	if dryRun {
		ops, err := svc.Plan(existing, lines)
		if err != nil {
			return err
		}
		if len(ops) == 0 {
			fmt.Fprintln(out, "already in sync")
			return nil
		}
		for _, op := range ops {
			fmt.Fprintln(out, op.String())
		}
		return nil
	}

	report, err := svc.Sync(ctx, invoiceID, existing, lines)
	fmt.Fprintf(out, "%d operations, %d succeeded, %d failed\n", report.Total, report.Succeeded, report.Failed)

	var rerr *linedomain.ReconcileError
	if errors.As(err, &rerr) {
		for _, r := range report.Results {
			if r.Err != nil {
				fmt.Fprintf(out, "failed %s after %d attempts: %v\n", r.Operation, r.Attempts, r.Err)
			}
		}
	}
	return err
}
