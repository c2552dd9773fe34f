package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	documentsRendered   metric.Int64Counter
	documentPages       metric.Int64Histogram
	reconcileOperations metric.Int64Counter
	reconcileRetries    metric.Int64Counter
	reconcileDuration   metric.Float64Histogram
	wizardEvents        metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "fiberdesk"
	}
	meter := provider.Meter(name)

	documentsRendered, err := meter.Int64Counter("fiberdesk_documents_rendered_total")
	if err != nil {
		return nil, err
	}
	documentPages, err := meter.Int64Histogram("fiberdesk_document_pages")
	if err != nil {
		return nil, err
	}
	reconcileOperations, err := meter.Int64Counter("fiberdesk_reconcile_operations_total")
	if err != nil {
		return nil, err
	}
	reconcileRetries, err := meter.Int64Counter("fiberdesk_reconcile_retries_total")
	if err != nil {
		return nil, err
	}
	reconcileDuration, err := meter.Float64Histogram("fiberdesk_reconcile_duration_seconds", metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	wizardEvents, err := meter.Int64Counter("fiberdesk_wizard_events_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		documentsRendered:   documentsRendered,
		documentPages:       documentPages,
		reconcileOperations: reconcileOperations,
		reconcileRetries:    reconcileRetries,
		reconcileDuration:   reconcileDuration,
		wizardEvents:        wizardEvents,
	}, nil
}

// RecordDocumentRendered counts a generated document and its page count.
func (m *Metrics) RecordDocumentRendered(ctx context.Context, documentType, totalsMode string, pages int) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("document_type", strings.TrimSpace(documentType)),
		attribute.String("totals_mode", strings.TrimSpace(totalsMode)),
	)
	m.documentsRendered.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.documentPages.Record(ctx, int64(pages), metric.WithAttributes(attrs...))
}

// RecordReconcileOperation counts a settled line operation.
func (m *Metrics) RecordReconcileOperation(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("operation", strings.TrimSpace(kind)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.reconcileOperations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordReconcileRetry counts a retry after a contention failure.
func (m *Metrics) RecordReconcileRetry(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("operation", strings.TrimSpace(kind)))
	m.reconcileRetries.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// ObserveReconcile records the wall time of a whole synchronization pass.
func (m *Metrics) ObserveReconcile(ctx context.Context, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.reconcileDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordWizardEvent counts a session lifecycle transition.
func (m *Metrics) RecordWizardEvent(ctx context.Context, event string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("event", strings.TrimSpace(event)))
	m.wizardEvents.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"document_type": {},
	"totals_mode":   {},
	"operation":     {},
	"outcome":       {},
	"endpoint":      {},
	"status_code":   {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
