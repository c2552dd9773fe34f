package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallbiznis/fiberdesk/internal/clock"
	"github.com/smallbiznis/fiberdesk/internal/config"
	"github.com/smallbiznis/fiberdesk/internal/document/domain"
	"github.com/smallbiznis/fiberdesk/internal/document/format"
	"github.com/smallbiznis/fiberdesk/internal/document/layout"
	"github.com/smallbiznis/fiberdesk/internal/observability/logger"
	"github.com/smallbiznis/fiberdesk/internal/observability/metrics"
	"github.com/smallbiznis/fiberdesk/internal/providers/pdf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Config   config.Config
	Company  *config.CompanyProfileHolder
	Measurer layout.Measurer
	Painter  pdf.Provider
	Clock    clock.Clock
	Log      *zap.Logger
	Metrics  *metrics.Metrics `optional:"true"`
}

// Service renders business documents. It keeps no state between calls.
type Service struct {
	company  *config.CompanyProfileHolder
	logoPath string
	measurer layout.Measurer
	painter  pdf.Provider
	clock    clock.Clock
	log      *zap.Logger
	metrics  *metrics.Metrics
}

func NewService(p ServiceParam) *Service {
	return &Service{
		company:  p.Company,
		logoPath: p.Config.Document.LogoPath,
		measurer: p.Measurer,
		painter:  p.Painter,
		clock:    p.Clock,
		log:      p.Log.Named("document.service"),
		metrics:  p.Metrics,
	}
}

// Plan resolves the document number and date and lays the document out
// without painting it.
func (s *Service) Plan(req domain.Request) (layout.Layout, error) {
	if err := req.Validate(); err != nil {
		return layout.Layout{}, err
	}

	now := s.clock.Now()
	date := req.Invoice.Date
	if date.IsZero() {
		date = now
	}

	profile := s.company.Get()
	company := domain.Company{
		Name:          profile.Name,
		Activity:      profile.Activity,
		Address:       profile.Address,
		Phone:         profile.Phone,
		Email:         profile.Email,
		Website:       profile.Website,
		RegistryNo:    profile.RegistryNo,
		TaxID:         profile.TaxID,
		StatisticalID: profile.StatisticalID,
		ArticleNo:     profile.ArticleNo,
		BankAccount:   profile.BankAccount,
		Footer:        profile.Footer,
		LogoPath:      s.logoPath,
	}

	return layout.Plan(layout.Request{
		Type:    req.Type,
		Number:  format.DocumentNumber(req.Type, req.Invoice, req.ProjectID, now),
		Date:    date,
		Company: company,
		Currency: domain.Currency{
			Code:    profile.CurrencyCode,
			Unit:    profile.CurrencyUnit,
			Subunit: profile.CurrencySub,
		},
		Invoice: req.Invoice,
		Client:  req.Client,
		Project: req.Project,
	}, s.measurer), nil
}

// Generate plans and paints one document.
func (s *Service) Generate(ctx context.Context, req domain.Request) (domain.Document, error) {
	ctx, span := otel.Tracer("fiberdesk/document").Start(ctx, "document.generate")
	defer span.End()
	span.SetAttributes(attribute.String("document_type", string(req.Type)))

	l, err := s.Plan(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.Document{}, err
	}

	out, err := s.painter.Render(ctx, l)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return domain.Document{}, fmt.Errorf("render %s %s: %w", l.Type, l.Number, err)
	}

	doc := domain.Document{
		Type:        l.Type,
		Number:      l.Number,
		FileName:    format.FileName(l.Type, l.Number),
		ContentType: pdf.ContentType,
		Bytes:       out,
		Pages:       len(l.Pages),
		TotalsMode:  string(l.TotalsMode),
	}

	s.metrics.RecordDocumentRendered(ctx, string(doc.Type), doc.TotalsMode, doc.Pages)
	logger.WithContext(ctx, s.log).Info("document generated",
		zap.String("document_type", string(doc.Type)),
		zap.String("number", doc.Number),
		zap.Int("pages", doc.Pages),
		zap.Int("bytes", len(out)),
	)

	return doc, nil
}

// IsInvalid reports whether err comes from a malformed request.
func IsInvalid(err error) bool {
	return errors.Is(err, domain.ErrInvalidDocument) || errors.Is(err, domain.ErrInvalidDocumentType)
}
