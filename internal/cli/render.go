package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/smallbiznis/fiberdesk/internal/document"
	docdomain "github.com/smallbiznis/fiberdesk/internal/document/domain"
	docservice "github.com/smallbiznis/fiberdesk/internal/document/service"
	"github.com/smallbiznis/fiberdesk/internal/providers/pdf"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const typeAll = "all"

type documentGenerator interface {
	Generate(ctx context.Context, req docdomain.Request) (docdomain.Document, error)
}

// renderInput is the YAML document a render reads its snapshots from.
type renderInput struct {
	Invoice   docdomain.Invoice `yaml:"invoice"`
	Client    docdomain.Client  `yaml:"client"`
	Project   docdomain.Project `yaml:"project"`
	ProjectID string            `yaml:"project_id"`
}

func newRenderCommand() *cobra.Command {
	var (
		typeFlag string
		input    string
		outDir   string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render business documents to PDF",
		Example: "  fiberdesk render --type invoice --input invoice.yaml --out ./out\n" +
			"  fiberdesk render --type all --input invoice.yaml\n" +
			"  fiberdesk render --input invoice.yaml --dry-run",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			types, err := parseTypes(typeFlag)
			if err != nil {
				return err
			}
			in, err := loadRenderInput(input)
			if err != nil {
				return err
			}

			var docs *docservice.Service
			opts := []fx.Option{document.Module, fx.Populate(&docs)}
			if dryRun {
				opts = append(opts, fx.Decorate(func(pdf.Provider) pdf.Provider {
					return &pdf.NoOpProvider{}
				}))
			}
			app := newApp(opts...)
			ctx := cmd.Context()
			if err := app.Start(ctx); err != nil {
				return err
			}
			defer func() { _ = app.Stop(context.WithoutCancel(ctx)) }()

			if dryRun {
				outDir = ""
			}
			lines, err := renderAll(ctx, docs, in, types, outDir)
			for _, l := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", typeAll, "document type, or all")
	cmd.Flags().StringVar(&input, "input", "", "YAML file with invoice, client and project")
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "plan the layout and print it without writing files")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func parseTypes(raw string) ([]docdomain.Type, error) {
	if strings.EqualFold(strings.TrimSpace(raw), typeAll) {
		return docdomain.Types(), nil
	}
	t, err := docdomain.ParseType(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, raw)
	}
	return []docdomain.Type{t}, nil
}

func loadRenderInput(path string) (renderInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return renderInput{}, err
	}
	var in renderInput
	if err := yaml.Unmarshal(raw, &in); err != nil {
		return renderInput{}, fmt.Errorf("parse %s: %w", path, err)
	}
	for i := range in.Invoice.Lines {
		in.Invoice.Lines[i].Recompute()
	}
	return in, nil
}

// renderAll renders every type and writes the files to outDir. Paths are
// returned in the order of types; a failed type leaves an empty entry out.
// An empty outDir writes nothing and returns a one-line plan summary per type.
func renderAll(ctx context.Context, gen documentGenerator, in renderInput, types []docdomain.Type, outDir string) ([]string, error) {
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return nil, err
		}
	}

	paths := make([]string, len(types))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, t := range types {
		g.Go(func() error {
			doc, err := gen.Generate(gctx, docdomain.Request{
				Type:      t,
				Invoice:   in.Invoice,
				Client:    in.Client,
				Project:   in.Project,
				ProjectID: in.ProjectID,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", t, err)
			}
			if outDir == "" {
				paths[i] = fmt.Sprintf("%s\t%d page(s)\ttotals=%s", doc.FileName, doc.Pages, doc.TotalsMode)
				return nil
			}
			path := filepath.Join(outDir, doc.FileName)
			if err := os.WriteFile(path, doc.Bytes, 0o644); err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}

	err := g.Wait()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	return out, err
}
