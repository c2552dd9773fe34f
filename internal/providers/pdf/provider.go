package pdf

import (
	"context"

	"github.com/smallbiznis/fiberdesk/internal/document/layout"
)

// ContentType of every rendered document.
const ContentType = "application/pdf"

// Provider paints a planned layout into a file.
type Provider interface {
	Render(ctx context.Context, l layout.Layout) ([]byte, error)
}

// NoOpProvider paints nothing. render --dry-run uses it to plan layouts
// without producing files.
type NoOpProvider struct{}

func (p *NoOpProvider) Render(ctx context.Context, l layout.Layout) ([]byte, error) {
	return nil, nil
}
