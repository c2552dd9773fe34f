package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	docdomain "github.com/smallbiznis/fiberdesk/internal/document/domain"
	linedomain "github.com/smallbiznis/fiberdesk/internal/invoiceline/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
project_id: hydra lot 2
invoice:
  number: F-2026-0042
  date: 2026-01-02T00:00:00Z
  tax_rate: 19
  lines:
    - id: 10
      description: Câble 12FO
      quantity: 100
      unit_price: "35.50"
    - description: Soudure
      quantity: 2
      unit_price: "800"
      discount: "10"
client:
  name: Hydra Télécom
  address: Alger
project:
  name: Lot 2
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseTypes(t *testing.T) {
	all, err := parseTypes("ALL")
	require.NoError(t, err)
	assert.Equal(t, docdomain.Types(), all)

	one, err := parseTypes("delivery_note")
	require.NoError(t, err)
	assert.Equal(t, []docdomain.Type{docdomain.TypeDeliveryNote}, one)

	_, err = parseTypes("quote")
	assert.ErrorIs(t, err, docdomain.ErrInvalidDocumentType)
}

func TestLoadRenderInput(t *testing.T) {
	in, err := loadRenderInput(writeFile(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "hydra lot 2", in.ProjectID)
	assert.Equal(t, "F-2026-0042", in.Invoice.Number)
	assert.Equal(t, 2026, in.Invoice.Date.Year())
	assert.True(t, in.Invoice.TaxRatePercent.Equal(decimal.NewFromInt(19)))
	require.Len(t, in.Invoice.Lines, 2)
	require.NotNil(t, in.Invoice.Lines[0].ID)
	assert.Equal(t, int64(10), *in.Invoice.Lines[0].ID)
	assert.True(t, in.Invoice.Lines[0].LineTotal.Equal(decimal.NewFromInt(3550)))
	assert.True(t, in.Invoice.Lines[1].LineTotal.Equal(decimal.NewFromInt(1440)))
	assert.Equal(t, "Hydra Télécom", in.Client.Name)
}

func TestLoadRenderInputMissingFile(t *testing.T) {
	_, err := loadRenderInput(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

type fakeGenerator struct {
	mu    sync.Mutex
	seen  []docdomain.Type
	fails map[docdomain.Type]error
}

func (f *fakeGenerator) Generate(_ context.Context, req docdomain.Request) (docdomain.Document, error) {
	f.mu.Lock()
	f.seen = append(f.seen, req.Type)
	f.mu.Unlock()
	if err := f.fails[req.Type]; err != nil {
		return docdomain.Document{}, err
	}
	return docdomain.Document{
		Type:     req.Type,
		FileName: string(req.Type) + ".pdf",
		Bytes:    []byte("%PDF-" + string(req.Type)),
	}, nil
}

func TestRenderAllWritesEveryType(t *testing.T) {
	out := filepath.Join(t.TempDir(), "docs")
	gen := &fakeGenerator{}

	paths, err := renderAll(context.Background(), gen, renderInput{}, docdomain.Types(), out)
	require.NoError(t, err)

	require.Len(t, paths, 5)
	assert.ElementsMatch(t, docdomain.Types(), gen.seen)
	assert.Equal(t, filepath.Join(out, "purchase_order.pdf"), paths[0])

	raw, err := os.ReadFile(filepath.Join(out, "invoice.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-invoice", string(raw))
}

func TestRenderAllReportsFailure(t *testing.T) {
	boom := errors.New("font missing")
	gen := &fakeGenerator{fails: map[docdomain.Type]error{docdomain.TypeInvoice: boom}}

	_, err := renderAll(context.Background(), gen, renderInput{}, []docdomain.Type{docdomain.TypeInvoice}, t.TempDir())
	assert.ErrorIs(t, err, boom)
}

func TestRenderAllWithoutOutDirWritesNothing(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	gen := &fakeGenerator{}

	lines, err := renderAll(context.Background(), gen, renderInput{}, []docdomain.Type{docdomain.TypeInvoice}, "")
	require.NoError(t, err)

	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "invoice.pdf")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type mockSyncer struct {
	mock.Mock
}

func (m *mockSyncer) Snapshot(ctx context.Context, invoiceID int64) ([]linedomain.ExistingLine, error) {
	args := m.Called(ctx, invoiceID)
	return args.Get(0).([]linedomain.ExistingLine), args.Error(1)
}

func (m *mockSyncer) Plan(existing []linedomain.ExistingLine, desired []linedomain.Line) ([]linedomain.Operation, error) {
	args := m.Called(existing, desired)
	return args.Get(0).([]linedomain.Operation), args.Error(1)
}

func (m *mockSyncer) Sync(ctx context.Context, invoiceID int64, existing []linedomain.ExistingLine, desired []linedomain.Line) (linedomain.Report, error) {
	args := m.Called(ctx, invoiceID, existing, desired)
	return args.Get(0).(linedomain.Report), args.Error(1)
}

func TestLoadLines(t *testing.T) {
	lines, err := loadLines(writeFile(t, "lines:\n  - description: Soudure\n    quantity: 3\n    unit_price: \"800\"\n"))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Nil(t, lines[0].ID)
	assert.True(t, lines[0].LineTotal.Equal(decimal.NewFromInt(2400)))
}

func TestRunSyncDryRun(t *testing.T) {
	svc := new(mockSyncer)
	existing := []linedomain.ExistingLine{{ID: 11, Description: "old"}}
	lines := []linedomain.Line{linedomain.NewLine("Soudure", decimal.NewFromInt(800))}
	svc.On("Snapshot", mock.Anything, int64(42)).Return(existing, nil)
	svc.On("Plan", existing, lines).Return([]linedomain.Operation{
		{Kind: linedomain.OperationCreate, Line: lines[0]},
		{Kind: linedomain.OperationDelete, Index: -1, LineID: 11},
	}, nil)

	var out bytes.Buffer
	require.NoError(t, runSync(context.Background(), &out, svc, 42, lines, true))

	assert.Equal(t, "create(\"Soudure\")\ndelete(11)\n", out.String())
	svc.AssertNotCalled(t, "Sync", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunSyncReportsFailures(t *testing.T) {
	svc := new(mockSyncer)
	cause := errors.New("database is locked")
	svc.On("Snapshot", mock.Anything, int64(42)).Return([]linedomain.ExistingLine{}, nil)
	svc.On("Sync", mock.Anything, int64(42), mock.Anything, mock.Anything).Return(linedomain.Report{
		Total:     2,
		Succeeded: 1,
		Failed:    1,
		Results: []linedomain.OperationResult{
			{Operation: linedomain.Operation{Kind: linedomain.OperationDelete, LineID: 11}, Attempts: 3, Err: cause},
		},
	}, &linedomain.ReconcileError{Failed: 1, Total: 2, Err: cause})

	var out bytes.Buffer
	err := runSync(context.Background(), &out, svc, 42, nil, false)

	var rerr *linedomain.ReconcileError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, out.String(), "2 operations, 1 succeeded, 1 failed")
	assert.Contains(t, out.String(), "failed delete(11) after 3 attempts: database is locked")
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := NewRootCommand()
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "render", "sync"}, names)
}
