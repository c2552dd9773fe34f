// Package domain models the invoice editing session that sits between
// opening an invoice and submitting its lines.
package domain

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	docdomain "github.com/smallbiznis/fiberdesk/internal/document/domain"
	linedomain "github.com/smallbiznis/fiberdesk/internal/invoiceline/domain"
)

var (
	ErrSessionNotFound  = errors.New("session_not_found")
	ErrInvalidSession   = errors.New("invalid_session")
	ErrSubmitInProgress = errors.New("submit_in_progress")
)

// Session owns the snapshot taken at open time and the working copy the
// user edits. Existing is never refreshed while the user edits.
type Session struct {
	ID        string                    `json:"id"`
	InvoiceID int64                     `json:"invoice_id"`
	Invoice   docdomain.Invoice         `json:"invoice"`
	Client    docdomain.Client          `json:"client"`
	Project   docdomain.Project         `json:"project"`
	ProjectID string                    `json:"project_id,omitempty"`
	Existing  []linedomain.ExistingLine `json:"existing"`
	Lines     []linedomain.Line         `json:"lines"`
	OpenedAt  time.Time                 `json:"opened_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

func (s Session) Subtotal() decimal.Decimal {
	return linedomain.Subtotal(s.Lines)
}

// Clone copies the line slices so the result can be edited independently.
func (s Session) Clone() Session {
	s.Existing = slices.Clone(s.Existing)
	s.Lines = slices.Clone(s.Lines)
	return s
}

// DocumentRequest builds a render request from the session snapshots and
// the current working copy.
func (s Session) DocumentRequest(t docdomain.Type) docdomain.Request {
	invoice := s.Invoice
	invoice.Lines = slices.Clone(s.Lines)
	return docdomain.Request{
		Type:      t,
		Invoice:   invoice,
		Client:    s.Client,
		Project:   s.Project,
		ProjectID: s.ProjectID,
	}
}

// OpenRequest starts a session on an existing invoice. Invoice carries the
// header only; lines are read from the remote store.
type OpenRequest struct {
	InvoiceID int64             `json:"invoice_id" validate:"required,gt=0"`
	Invoice   docdomain.Invoice `json:"invoice"`
	Client    docdomain.Client  `json:"client"`
	Project   docdomain.Project `json:"project"`
	ProjectID string            `json:"project_id,omitempty"`
}

var validate = validator.New()

func (r OpenRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return nil
}

// SubmitResult reports one submission. Closed is true when every
// operation succeeded and the session was discarded.
type SubmitResult struct {
	Report  linedomain.Report `json:"-"`
	Closed  bool              `json:"closed"`
	Session *Session          `json:"session,omitempty"`
}

// Store keeps sessions between requests.
type Store interface {
	Get(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, session Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	// MarkClosed leaves a marker that outlives the session so a writer
	// racing a close can tell the session must not come back.
	MarkClosed(ctx context.Context, id string, ttl time.Duration) error
	IsClosed(ctx context.Context, id string) (bool, error)
}
