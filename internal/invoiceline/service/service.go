package service

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/fiberdesk/internal/config"
	"github.com/smallbiznis/fiberdesk/internal/invoiceline/domain"
	"github.com/smallbiznis/fiberdesk/internal/invoiceline/reconcile"
	"github.com/smallbiznis/fiberdesk/internal/invoiceline/remote"
	"github.com/smallbiznis/fiberdesk/internal/observability/logger"
	"github.com/smallbiznis/fiberdesk/internal/observability/metrics"
	"github.com/smallbiznis/fiberdesk/internal/retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Config  config.Config
	Store   domain.LineStore
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	store    domain.LineStore
	executor *Executor
	log      *zap.Logger
	metrics  *metrics.Metrics
}

func NewService(p ServiceParam) *Service {
	rc := p.Config.Reconcile
	policy := retry.New(rc.MaxAttempts, rc.BaseDelay, remote.ContentionPredicate(p.Config.Remote.ContentionMarkers...))

	return &Service{
		store: p.Store,
		executor: NewExecutor(p.Store, p.Log,
			WithBatchSize(rc.BatchSize),
			WithBatchDelay(rc.BatchDelay),
			WithRetryPolicy(policy),
			WithMetrics(p.Metrics),
		),
		log:     p.Log.Named("invoiceline.service"),
		metrics: p.Metrics,
	}
}

// Snapshot reads the server-known lines of an invoice.
func (s *Service) Snapshot(ctx context.Context, invoiceID int64) ([]domain.ExistingLine, error) {
	if invoiceID <= 0 {
		return nil, domain.ErrInvalidInvoice
	}
	lines, err := s.store.ListLines(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return domain.Existing(lines), nil
}

// Plan returns the operations Sync would run, without running them.
func (s *Service) Plan(existing []domain.ExistingLine, desired []domain.Line) ([]domain.Operation, error) {
	if err := domain.ValidateLines(desired); err != nil {
		return nil, err
	}
	return reconcile.Diff(existing, desired), nil
}

// Sync brings the remote lines of invoiceID in line with desired.
func (s *Service) Sync(ctx context.Context, invoiceID int64, existing []domain.ExistingLine, desired []domain.Line) (domain.Report, error) {
	if invoiceID <= 0 {
		return domain.Report{}, domain.ErrInvalidInvoice
	}
	ops, err := s.Plan(existing, desired)
	if err != nil {
		return domain.Report{}, err
	}

	ctx, span := otel.Tracer("fiberdesk/invoiceline").Start(ctx, "invoiceline.sync")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("invoice_id", invoiceID),
		attribute.Int("operations", len(ops)),
	)

	log := logger.WithInvoice(logger.WithContext(ctx, s.log), invoiceID)
	if len(ops) == 0 {
		log.Debug("invoice lines already in sync")
		return domain.Report{}, nil
	}
	log.Info("synchronizing invoice lines", zap.Int("operations", len(ops)))

	start := time.Now()
	report, err := s.executor.Execute(ctx, invoiceID, ops)

	outcome := "success"
	if err != nil {
		outcome = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		var rerr *domain.ReconcileError
		if errors.As(err, &rerr) {
			log.Warn("invoice line synchronization incomplete",
				zap.Int("failed", rerr.Failed),
				zap.Int("total", rerr.Total),
				zap.Error(rerr.Err),
			)
		}
	} else {
		log.Info("invoice lines synchronized", zap.Int("operations", report.Total))
	}
	s.metrics.ObserveReconcile(ctx, outcome, time.Since(start))

	return report, err
}

