package pdf

import (
	"context"
	"fmt"
	"os"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/fiberdesk/internal/document/layout"
	"go.uber.org/zap"
)

const (
	titleSize = 14.0
	bodySize  = 9.0
	smallSize = 7.0
)

var (
	shade      = &props.Color{Red: 240, Green: 240, Blue: 240}
	headerFill = &props.Color{Red: 220, Green: 226, Blue: 236}
	frame      = &props.Cell{BorderType: border.Full, BorderThickness: 0.2}
)

// Renderer paints layouts with maroto. It adds no page breaks of its own:
// every planned page becomes one maroto page.
type Renderer struct {
	log *zap.Logger
}

func NewRenderer(log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{log: log.Named("pdf.renderer")}
}

func (r *Renderer) Render(ctx context.Context, l layout.Layout) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(layout.MarginSide).
		WithTopMargin(layout.MarginTop).
		WithRightMargin(layout.MarginSide).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} / {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)
	if err := m.RegisterFooter(r.footer(l.Footer)...); err != nil {
		return nil, fmt.Errorf("register footer: %w", err)
	}

	pages := make([]core.Page, 0, len(l.Pages))
	for _, p := range l.Pages {
		rows := make([]core.Row, 0, len(p.Bands))
		for _, band := range p.Bands {
			rows = append(rows, r.band(band))
		}
		pages = append(pages, page.New().Add(rows...))
	}
	m.AddPages(pages...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}

	r.log.Debug("document painted",
		zap.String("document_type", string(l.Type)),
		zap.String("number", l.Number),
		zap.Int("pages", len(l.Pages)),
	)
	return doc.GetBytes(), nil
}

func (r *Renderer) band(b layout.Band) core.Row {
	switch b.Kind {
	case layout.BandHeader:
		return r.header(b)
	case layout.BandTitle:
		return row.New(b.Height).Add(
			text.NewCol(12, b.Title, props.Text{Top: 3, Size: titleSize, Style: fontstyle.Bold, Align: align.Center}),
		)
	case layout.BandParties:
		return r.parties(b)
	case layout.BandTableHeader:
		cols := make([]core.Col, 0, len(b.Columns))
		for _, c := range b.Columns {
			cols = append(cols, text.NewCol(c.Span, c.Title, props.Text{
				Top:   2,
				Size:  MeasureFontSize,
				Style: fontstyle.Bold,
				Align: alignOf(c.Align),
			}))
		}
		return row.New(b.Height).Add(cols...).WithStyle(&props.Cell{
			BackgroundColor: headerFill,
			BorderType:      border.Full,
			BorderThickness: 0.2,
		})
	case layout.BandRow:
		return r.tableRow(b)
	case layout.BandTotals, layout.BandSummary:
		return row.New(b.Height).Add(col.New(7), pairsCol(5, b.Pairs, bodySize).WithStyle(frame))
	case layout.BandDeposit:
		return r.deposit(b)
	case layout.BandWords, layout.BandNotice:
		return row.New(b.Height).Add(linesCol(12, b.Lines, layout.RowPadding, bodySize, fontstyle.Italic, align.Left))
	case layout.BandSignature:
		return r.signature(b)
	default:
		return row.New(b.Height).Add(col.New(12))
	}
}

func (r *Renderer) header(b layout.Band) core.Row {
	identity := col.New(9).Add(text.New(b.Title, props.Text{Top: 2, Size: 13, Style: fontstyle.Bold}))
	for i, line := range b.Lines {
		identity.Add(text.New(line, props.Text{Top: 9 + float64(i)*layout.LineHeight, Size: smallSize + 1}))
	}

	if b.Image == "" {
		return row.New(b.Height).Add(identity, col.New(3))
	}
	if _, err := os.Stat(b.Image); err != nil {
		r.log.Warn("logo not readable, header painted without it", zap.String("path", b.Image), zap.Error(err))
		return row.New(b.Height).Add(identity, col.New(3))
	}
	return row.New(b.Height).Add(
		image.NewFromFileCol(3, b.Image, props.Rect{Center: true, Percent: 85}),
		identity,
	)
}

func (r *Renderer) parties(b layout.Band) core.Row {
	recipient := col.New(7).Add(text.New(b.Title, props.Text{Top: layout.RowPadding, Left: 2, Size: bodySize, Style: fontstyle.Bold}))
	for i, line := range b.Lines {
		recipient.Add(text.New(line, props.Text{
			Top:  layout.RowPadding + float64(i+1)*layout.LineHeight,
			Left: 2,
			Size: bodySize - 1,
		}))
	}
	return row.New(b.Height).Add(
		recipient.WithStyle(frame),
		pairsCol(5, b.Pairs, bodySize).WithStyle(frame),
	)
}

// tableRow centres the wrapped lines of every cell vertically.
func (r *Renderer) tableRow(b layout.Band) core.Row {
	cols := make([]core.Col, 0, len(b.Cells))
	for _, cell := range b.Cells {
		top := (b.Height - float64(len(cell.Lines))*layout.LineHeight) / 2
		if top < 0 {
			top = 0
		}
		cols = append(cols, linesCol(cell.Span, cell.Lines, top, MeasureFontSize, fontstyle.Normal, alignOf(cell.Align)))
	}

	style := &props.Cell{BorderType: border.Full, BorderThickness: 0.1}
	if b.Shaded {
		style.BackgroundColor = shade
	}
	return row.New(b.Height).Add(cols...).WithStyle(style)
}

func (r *Renderer) deposit(b layout.Band) core.Row {
	if !b.Emphasized {
		return row.New(b.Height).Add(col.New(7), pairsCol(5, b.Pairs, bodySize).WithStyle(frame))
	}

	box := col.New(12)
	for i, p := range b.Pairs {
		size := bodySize + 1
		if p.Bold {
			size = titleSize
		}
		box.Add(text.New(p.Label+" : "+p.Value, props.Text{
			Top:   layout.PairHeight*0.5 + float64(i)*layout.PairHeight*1.4,
			Size:  size,
			Style: fontstyle.Bold,
			Align: align.Center,
		}))
	}
	return row.New(b.Height).Add(box.WithStyle(&props.Cell{
		BackgroundColor: shade,
		BorderType:      border.Full,
		BorderThickness: 0.6,
	}))
}

func (r *Renderer) signature(b layout.Band) core.Row {
	if len(b.Signatures) == 0 {
		return row.New(b.Height).Add(col.New(12))
	}
	span := 12 / len(b.Signatures)
	cols := make([]core.Col, 0, len(b.Signatures))
	for _, s := range b.Signatures {
		c := col.New(span).Add(text.New(s.Title, props.Text{Top: 2, Size: bodySize, Style: fontstyle.Bold, Align: align.Center}))
		if s.WithDate {
			c.Add(text.New("Date : ____ / ____ / ________", props.Text{Top: b.Height - 7, Size: smallSize + 1, Align: align.Center}))
		}
		cols = append(cols, c.WithStyle(frame))
	}
	return row.New(b.Height).Add(cols...)
}

func (r *Renderer) footer(b layout.Band) []core.Row {
	return []core.Row{
		row.New(b.Height).Add(linesCol(12, b.Lines, 1, smallSize, fontstyle.Normal, align.Center)),
	}
}

func pairsCol(span int, pairs []layout.Pair, size float64) core.Col {
	c := col.New(span)
	for i, p := range pairs {
		style := fontstyle.Normal
		if p.Bold {
			style = fontstyle.Bold
		}
		top := layout.RowPadding + float64(i)*layout.PairHeight
		c.Add(
			text.New(p.Label, props.Text{Top: top, Left: 2, Size: size, Style: style}),
			text.New(p.Value, props.Text{Top: top, Right: 2, Size: size, Style: style, Align: align.Right}),
		)
	}
	return c
}

func linesCol(span int, lines []string, top, size float64, style fontstyle.Type, a align.Type) core.Col {
	c := col.New(span)
	for i, line := range lines {
		c.Add(text.New(line, props.Text{
			Top:   top + float64(i)*layout.LineHeight,
			Left:  1,
			Right: 1,
			Size:  size,
			Style: style,
			Align: a,
		}))
	}
	return c
}

func alignOf(a layout.Align) align.Type {
	switch a {
	case layout.AlignCenter:
		return align.Center
	case layout.AlignRight:
		return align.Right
	default:
		return align.Left
	}
}
