package wizard

import (
	"context"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/fiberdesk/internal/config"
	docservice "github.com/smallbiznis/fiberdesk/internal/document/service"
	lineservice "github.com/smallbiznis/fiberdesk/internal/invoiceline/service"
	"github.com/smallbiznis/fiberdesk/internal/lock"
	"github.com/smallbiznis/fiberdesk/internal/wizard/domain"
	"github.com/smallbiznis/fiberdesk/internal/wizard/service"
	"github.com/smallbiznis/fiberdesk/internal/wizard/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("wizard",
	fx.Provide(
		provideBackends,
		provideLineSyncer,
		provideDocumentGenerator,
		service.NewService,
	),
)

type backends struct {
	fx.Out

	Store  domain.Store
	Locker lock.Locker
}

func provideBackends(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) backends {
	if cfg.Session.Store != config.SessionStoreRedis {
		log.Info("wizard sessions kept in memory")
		return backends{Store: store.NewMemoryStore(), Locker: lock.NewMemoryLocker()}
	}

	client := redis.NewClient(&redis.Options{
		Addr: strings.TrimSpace(cfg.Session.RedisAddr),
		DB:   cfg.Session.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	log.Info("wizard sessions kept in redis", zap.String("addr", cfg.Session.RedisAddr))
	return backends{Store: store.NewRedisStore(client), Locker: lock.NewRedisLocker(client)}
}

func provideLineSyncer(s *lineservice.Service) service.LineSyncer { return s }

func provideDocumentGenerator(s *docservice.Service) service.DocumentGenerator { return s }
