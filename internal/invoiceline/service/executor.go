package service

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/smallbiznis/fiberdesk/internal/invoiceline/domain"
	"github.com/smallbiznis/fiberdesk/internal/observability/metrics"
	"github.com/smallbiznis/fiberdesk/internal/retry"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	DefaultBatchSize  = 2
	DefaultBatchDelay = 200 * time.Millisecond
)

// Executor applies operations against a LineStore. Batches run one after
// another; operations inside a batch run concurrently.
type Executor struct {
	store      domain.LineStore
	batchSize  int
	batchDelay time.Duration
	policy     retry.Policy
	log        *zap.Logger
	metrics    *metrics.Metrics

	// sleep waits between batches. Tests replace it to observe the delays.
	sleep func(ctx context.Context, d time.Duration) error
}

type ExecutorOption func(*Executor)

func WithBatchSize(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

func WithBatchDelay(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d >= 0 {
			e.batchDelay = d
		}
	}
}

func WithRetryPolicy(p retry.Policy) ExecutorOption {
	return func(e *Executor) { e.policy = p }
}

func WithMetrics(m *metrics.Metrics) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

func withSleep(fn func(ctx context.Context, d time.Duration) error) ExecutorOption {
	return func(e *Executor) { e.sleep = fn }
}

func NewExecutor(store domain.LineStore, log *zap.Logger, opts ...ExecutorOption) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Executor{
		store:      store,
		batchSize:  DefaultBatchSize,
		batchDelay: DefaultBatchDelay,
		policy:     retry.New(retry.DefaultMaxAttempts, retry.DefaultBaseDelay, nil),
		log:        log.Named("invoiceline.executor"),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs every operation and collects all results; one failure never
// stops the others. The returned error is a *domain.ReconcileError when at
// least one operation failed after its retries.
func (e *Executor) Execute(ctx context.Context, invoiceID int64, ops []domain.Operation) (domain.Report, error) {
	results := make([]domain.OperationResult, len(ops))
	offset := 0

	for i, batch := range lo.Chunk(ops, e.batchSize) {
		if i > 0 && e.batchDelay > 0 {
			if err := e.sleep(ctx, e.batchDelay); err != nil {
				for j := offset; j < len(ops); j++ {
					results[j] = domain.OperationResult{Operation: ops[j], Err: err}
				}
				break
			}
		}

		p := pool.New().WithMaxGoroutines(len(batch))
		for j, op := range batch {
			idx := offset + j
			p.Go(func() {
				results[idx] = e.run(ctx, invoiceID, op)
			})
		}
		p.Wait()
		offset += len(batch)
	}

	return summarize(results)
}

func (e *Executor) run(ctx context.Context, invoiceID int64, op domain.Operation) domain.OperationResult {
	result := domain.OperationResult{Operation: op}

	policy := e.policy
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		e.log.Warn("remote store contention, retrying",
			zap.Int64("invoice_id", invoiceID),
			zap.Stringer("operation", op),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		e.metrics.RecordReconcileRetry(ctx, string(op.Kind))
	}

	attempts, err := policy.Do(ctx, func(ctx context.Context) error {
		switch op.Kind {
		case domain.OperationCreate:
			created, err := e.store.CreateLine(ctx, invoiceID, op.Line)
			if err != nil {
				return err
			}
			result.Created = &created
			return nil
		case domain.OperationUpdate:
			_, err := e.store.UpdateLine(ctx, invoiceID, op.LineID, op.Line, op.Changed)
			return err
		case domain.OperationDelete:
			return e.store.DeleteLine(ctx, invoiceID, op.LineID)
		default:
			return fmt.Errorf("unknown operation kind %q", op.Kind)
		}
	})

	result.Attempts = attempts
	result.Err = err

	outcome := "success"
	if err != nil {
		outcome = "failure"
		e.log.Error("line operation failed",
			zap.Int64("invoice_id", invoiceID),
			zap.Stringer("operation", op),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
	}
	e.metrics.RecordReconcileOperation(ctx, string(op.Kind), outcome)
	return result
}

func summarize(results []domain.OperationResult) (domain.Report, error) {
	report := domain.Report{Total: len(results), Results: results}

	var errs error
	for _, r := range results {
		if r.Err != nil {
			report.Failed++
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", r.Operation, r.Err))
			continue
		}
		report.Succeeded++
	}

	if report.Failed > 0 {
		return report, &domain.ReconcileError{Failed: report.Failed, Total: report.Total, Err: errs}
	}
	return report, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
