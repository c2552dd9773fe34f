package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/fiberdesk/internal/config"
	docdomain "github.com/smallbiznis/fiberdesk/internal/document/domain"
	docservice "github.com/smallbiznis/fiberdesk/internal/document/service"
	linedomain "github.com/smallbiznis/fiberdesk/internal/invoiceline/domain"
	"github.com/smallbiznis/fiberdesk/internal/observability"
	obsmiddleware "github.com/smallbiznis/fiberdesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/fiberdesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/fiberdesk/internal/observability/tracing"
	wizarddomain "github.com/smallbiznis/fiberdesk/internal/wizard/domain"
	wizardservice "github.com/smallbiznis/fiberdesk/internal/wizard/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

// DocumentGenerator renders a document from request snapshots.
type DocumentGenerator interface {
	Generate(ctx context.Context, req docdomain.Request) (docdomain.Document, error)
}

// WizardService drives invoice editing sessions.
type WizardService interface {
	Open(ctx context.Context, req wizarddomain.OpenRequest) (wizarddomain.Session, error)
	Get(ctx context.Context, id string) (wizarddomain.Session, error)
	ReplaceLines(ctx context.Context, id string, lines []linedomain.Line) (wizarddomain.Session, error)
	Submit(ctx context.Context, id string) (wizarddomain.SubmitResult, error)
	Close(ctx context.Context, id string) error
	RenderDocument(ctx context.Context, id string, t docdomain.Type) (docdomain.Document, error)
}

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, registry *prometheus.Registry) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return r
}

func run(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine    *gin.Engine
	cfg       config.Config
	documents DocumentGenerator
	wizard    WizardService
}

type ServerParams struct {
	fx.In

	Gin       *gin.Engine
	Cfg       config.Config
	Documents *docservice.Service
	Wizard    *wizardservice.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:    p.Gin,
		cfg:       p.Cfg,
		documents: p.Documents,
		wizard:    p.Wizard,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.APITokenRequired())

	// -------- Documents --------
	api.POST("/documents/:type", s.RenderDocument)

	// -------- Wizard --------
	sessions := api.Group("/wizard/sessions")
	{
		sessions.POST("", s.OpenSession)
		sessions.GET("/:id", s.GetSession)
		sessions.PUT("/:id/lines", s.ReplaceSessionLines)
		sessions.POST("/:id/submit", s.SubmitSession)
		sessions.DELETE("/:id", s.CloseSession)
		sessions.GET("/:id/documents/:type", s.RenderSessionDocument)
	}
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
