package pdf

import (
	"github.com/smallbiznis/fiberdesk/internal/document/layout"
	"go.uber.org/fx"
)

var Module = fx.Module("pdf",
	fx.Provide(
		fx.Annotate(NewRenderer, fx.As(new(Provider))),
		fx.Annotate(NewFontMeasurer, fx.As(new(layout.Measurer))),
	),
)
