package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/smallbiznis/fiberdesk/internal/cache"
	"github.com/smallbiznis/fiberdesk/internal/clock"
	"github.com/smallbiznis/fiberdesk/internal/config"
	docdomain "github.com/smallbiznis/fiberdesk/internal/document/domain"
	linedomain "github.com/smallbiznis/fiberdesk/internal/invoiceline/domain"
	"github.com/smallbiznis/fiberdesk/internal/lock"
	"github.com/smallbiznis/fiberdesk/internal/observability/logger"
	"github.com/smallbiznis/fiberdesk/internal/observability/metrics"
	"github.com/smallbiznis/fiberdesk/internal/wizard/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// submitLockTTL bounds how long a writer holds a session. Closed markers
// live as long, so every writer that may still save sees them.
const submitLockTTL = 5 * time.Minute

// LineSyncer reads and reconciles the remote lines of an invoice.
type LineSyncer interface {
	Snapshot(ctx context.Context, invoiceID int64) ([]linedomain.ExistingLine, error)
	Sync(ctx context.Context, invoiceID int64, existing []linedomain.ExistingLine, desired []linedomain.Line) (linedomain.Report, error)
}

type DocumentGenerator interface {
	Generate(ctx context.Context, req docdomain.Request) (docdomain.Document, error)
}

type ServiceParam struct {
	fx.In

	Config    config.Config
	Store     domain.Store
	Locker    lock.Locker
	Lines     LineSyncer
	Documents DocumentGenerator
	GenID     *snowflake.Node
	Clock     clock.Clock
	Log       *zap.Logger
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	store     domain.Store
	locker    lock.Locker
	lines     LineSyncer
	documents DocumentGenerator
	genID     *snowflake.Node
	clock     clock.Clock
	ttl       time.Duration
	log       *zap.Logger
	metrics   *metrics.Metrics
}

func NewService(p ServiceParam) *Service {
	return &Service{
		store:     p.Store,
		locker:    p.Locker,
		lines:     p.Lines,
		documents: p.Documents,
		genID:     p.GenID,
		clock:     p.Clock,
		ttl:       p.Config.Session.TTL,
		log:       p.Log.Named("wizard.service"),
		metrics:   p.Metrics,
	}
}

// Open snapshots the invoice's remote lines and starts a session whose
// working copy mirrors them.
func (s *Service) Open(ctx context.Context, req domain.OpenRequest) (domain.Session, error) {
	if err := req.Validate(); err != nil {
		return domain.Session{}, err
	}

	existing, err := s.lines.Snapshot(ctx, req.InvoiceID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("snapshot invoice %d: %w", req.InvoiceID, err)
	}

	header := req.Invoice
	header.Lines = nil
	now := s.clock.Now()

	session := domain.Session{
		ID:        s.genID.Generate().String(),
		InvoiceID: req.InvoiceID,
		Invoice:   header,
		Client:    req.Client,
		Project:   req.Project,
		ProjectID: strings.TrimSpace(req.ProjectID),
		Existing:  existing,
		Lines: lo.Map(existing, func(e linedomain.ExistingLine, _ int) linedomain.Line {
			return e.Line()
		}),
		OpenedAt:  now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, session, s.ttl); err != nil {
		return domain.Session{}, err
	}

	s.metrics.RecordWizardEvent(ctx, "opened")
	s.sessionLog(ctx, session).Info("wizard session opened", zap.Int("lines", len(existing)))
	return session, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Session, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return s.store.Get(ctx, id)
}

// ReplaceLines swaps the working copy. Derived totals are recomputed and
// the open-time snapshot is left untouched.
func (s *Service) ReplaceLines(ctx context.Context, id string, lines []linedomain.Line) (domain.Session, error) {
	if err := linedomain.ValidateLines(lines); err != nil {
		return domain.Session{}, err
	}

	release, err := s.acquire(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	defer release()

	session, err := s.Get(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}

	working := make([]linedomain.Line, len(lines))
	for i, line := range lines {
		line.Recompute()
		working[i] = line
	}
	session.Lines = working
	session.UpdatedAt = s.clock.Now()

	kept, err := s.keep(ctx, session)
	if err != nil {
		return domain.Session{}, err
	}
	if !kept {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, nil
}

// Submit reconciles the working copy against the open-time snapshot. The
// pass runs to completion even when ctx is cancelled. On full success the
// session is discarded; otherwise it stays open with the outcome of the
// settled operations folded in, so a retry only replays what is missing.
func (s *Service) Submit(ctx context.Context, id string) (domain.SubmitResult, error) {
	ctx, span := otel.Tracer("fiberdesk/wizard").Start(ctx, "wizard.submit")
	defer span.End()

	release, err := s.acquire(ctx, id)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	defer release()

	session, err := s.Get(ctx, id)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	span.SetAttributes(attribute.Int64("invoice_id", session.InvoiceID))
	log := s.sessionLog(ctx, session)

	detached := context.WithoutCancel(ctx)
	report, syncErr := s.lines.Sync(detached, session.InvoiceID, session.Existing, session.Lines)
	if syncErr == nil {
		if err := s.store.Delete(detached, session.ID); err != nil {
			log.Warn("failed to discard submitted session", zap.Error(err))
		}
		s.metrics.RecordWizardEvent(ctx, "submitted")
		log.Info("wizard session submitted", zap.Int("operations", report.Total))
		return domain.SubmitResult{Report: report, Closed: true}, nil
	}

	span.RecordError(syncErr)
	span.SetStatus(codes.Error, syncErr.Error())
	s.metrics.RecordWizardEvent(ctx, "submit_failed")

	var rerr *linedomain.ReconcileError
	if !errors.As(syncErr, &rerr) {
		return domain.SubmitResult{Report: report}, syncErr
	}

	settle(&session, report)
	session.UpdatedAt = s.clock.Now()

	kept, err := s.keep(detached, session)
	if err != nil {
		log.Error("failed to keep session after partial submission", zap.Error(err))
		return domain.SubmitResult{Report: report}, errors.Join(syncErr, err)
	}
	if !kept {
		log.Info("session closed during submission, dropping partial state")
		return domain.SubmitResult{Report: report, Closed: true}, syncErr
	}

	return domain.SubmitResult{Report: report, Session: &session}, syncErr
}

// Close discards the session. A submission already running is not stopped,
// and whatever it leaves behind is dropped instead of saved.
func (s *Service) Close(ctx context.Context, id string) error {
	session, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.MarkClosed(ctx, session.ID, submitLockTTL); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, session.ID); err != nil {
		return err
	}
	s.metrics.RecordWizardEvent(ctx, "closed")
	s.sessionLog(ctx, session).Info("wizard session closed")
	return nil
}

// RenderDocument renders t from the session snapshots and working copy.
func (s *Service) RenderDocument(ctx context.Context, id string, t docdomain.Type) (docdomain.Document, error) {
	if !t.Valid() {
		return docdomain.Document{}, docdomain.ErrInvalidDocumentType
	}
	session, err := s.Get(ctx, id)
	if err != nil {
		return docdomain.Document{}, err
	}
	return s.documents.Generate(ctx, session.DocumentRequest(t))
}

// keep saves session and reports whether it survived. Close marks before it
// deletes while keep saves before it checks the mark, so a close racing a
// write always ends with the session gone.
func (s *Service) keep(ctx context.Context, session domain.Session) (bool, error) {
	if err := s.store.Save(ctx, session, s.ttl); err != nil {
		return false, err
	}
	closed, err := s.store.IsClosed(ctx, session.ID)
	if err != nil {
		return false, err
	}
	if !closed {
		return true, nil
	}
	if err := s.store.Delete(ctx, session.ID); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Service) acquire(ctx context.Context, id string) (func(), error) {
	key := cache.Key("wizard", "session", id)
	token, ok, err := s.locker.TryLock(ctx, key, submitLockTTL)
	if err != nil {
		return nil, fmt.Errorf("lock session %s: %w", id, err)
	}
	if !ok {
		return nil, domain.ErrSubmitInProgress
	}
	return func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.log.Warn("failed to release session lock", zap.String("session_id", id), zap.Error(err))
		}
	}, nil
}

func (s *Service) sessionLog(ctx context.Context, session domain.Session) *zap.Logger {
	return logger.WithInvoice(logger.WithSession(logger.WithContext(ctx, s.log), session.ID), session.InvoiceID)
}

// settle folds the successful operations of a partial pass into the
// session: created lines get their remote identifier and the snapshot
// reflects what the remote store now holds.
func settle(session *domain.Session, report linedomain.Report) {
	for _, result := range report.Results {
		if result.Err != nil {
			continue
		}
		op := result.Operation

		switch op.Kind {
		case linedomain.OperationCreate:
			if result.Created == nil || result.Created.ID == nil {
				continue
			}
			if op.Index < 0 || op.Index >= len(session.Lines) {
				continue
			}
			id := *result.Created.ID
			line := session.Lines[op.Index]
			line.ID = &id
			session.Lines[op.Index] = line
			session.Existing = append(session.Existing, linedomain.Existing([]linedomain.Line{line})...)

		case linedomain.OperationUpdate:
			for i, e := range session.Existing {
				if e.ID != op.LineID {
					continue
				}
				updated := op.Line
				updated.ID = &e.ID
				session.Existing[i] = linedomain.Existing([]linedomain.Line{updated})[0]
			}

		case linedomain.OperationDelete:
			session.Existing = lo.Reject(session.Existing, func(e linedomain.ExistingLine, _ int) bool {
				return e.ID == op.LineID
			})
		}
	}
}
