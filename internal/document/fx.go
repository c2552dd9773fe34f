package document

import (
	"github.com/smallbiznis/fiberdesk/internal/document/service"
	"github.com/smallbiznis/fiberdesk/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("document",
	pdf.Module,
	fx.Provide(service.NewService),
)
