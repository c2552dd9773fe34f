package invoiceline

import (
	"github.com/smallbiznis/fiberdesk/internal/config"
	"github.com/smallbiznis/fiberdesk/internal/invoiceline/domain"
	"github.com/smallbiznis/fiberdesk/internal/invoiceline/remote"
	"github.com/smallbiznis/fiberdesk/internal/invoiceline/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("invoiceline",
	fx.Provide(
		fx.Annotate(
			provideRemoteClient,
			fx.As(new(domain.LineStore)),
		),
		service.NewService,
	),
)

func provideRemoteClient(cfg config.Config, log *zap.Logger) *remote.Client {
	return remote.New(remote.Config{
		BaseURL: cfg.Remote.BaseURL,
		Token:   cfg.Remote.Token,
		Timeout: cfg.Remote.Timeout,
	}, log)
}
