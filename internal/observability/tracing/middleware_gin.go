package tracing

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/fiberdesk/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// GinMiddleware opens one server span per request. Handlers that resolve a
// document type, a wizard session or an invoice leave them on the gin
// context and they end up on the span.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("fiberdesk/http")
	return func(c *gin.Context) {
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		method := strings.ToUpper(c.Request.Method)

		ctx, span := tracer.Start(ctx, "HTTP "+method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
			if member, err := baggage.NewMember("request_id", requestID); err == nil {
				if bag, err := baggage.New(member); err == nil {
					ctx = baggage.ContextWithBaggage(ctx, bag)
				}
			}
			span.SetAttributes(attribute.String("request_id", requestID))
		}

		c.Request = c.Request.WithContext(ctx)
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		span.SetName("HTTP " + method + " " + route)

		attrs := []attribute.KeyValue{
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
			attribute.Int64("http.server_duration_ms", time.Since(start).Milliseconds()),
		}
		span.SetAttributes(SafeAttributes(append(attrs, domainAttributes(c)...)...)...)

		if status < http.StatusInternalServerError {
			return
		}
		if lastErr := c.Errors.Last(); lastErr != nil {
			if safeErr := SafeError(lastErr.Err); safeErr != nil {
				span.RecordError(safeErr)
			}
		}
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}

func domainAttributes(c *gin.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if docType := strings.TrimSpace(c.GetString("document_type")); docType != "" {
		attrs = append(attrs, attribute.String("document_type", docType))
	}
	if sessionID := strings.TrimSpace(c.GetString("session_id")); sessionID != "" {
		attrs = append(attrs, attribute.String("session_id", sessionID))
	}
	if invoiceID := c.GetInt64("invoice_id"); invoiceID > 0 {
		attrs = append(attrs, attribute.Int64("invoice_id", invoiceID))
	}
	return attrs
}
