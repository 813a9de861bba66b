package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName        = "employee-manager/api"
	requestLogMessage = "employees.request"
)

// requestMetrics collects timings for one CRUD request and emits them as a
// structured log entry and a span when the request completes.
type requestMetrics struct {
	logger        *log.Logger
	span          trace.Span
	method        string
	route         string
	start         time.Time
	storeDuration time.Duration
	records       int
	errorStage    string
	cause         error
}

func newRequestMetrics(ctx context.Context, logger *log.Logger, method, route string) (*requestMetrics, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
	return &requestMetrics{
		logger: logger,
		span:   span,
		method: method,
		route:  route,
		start:  time.Now(),
	}, ctx
}

func (m *requestMetrics) ObserveStore(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.storeDuration = duration
}

func (m *requestMetrics) SetRecords(count int) {
	if count < 0 {
		count = 0
	}
	m.records = count
}

// Fail records the stage at which the request failed and the underlying cause.
func (m *requestMetrics) Fail(stage string, err error) {
	if stage != "" {
		m.errorStage = stage
	}
	m.cause = err
}

// Finish ends the span and writes the log entry. writeErr is the error, if
// any, returned while writing the response.
func (m *requestMetrics) Finish(status int, writeErr error) {
	if m == nil {
		return
	}

	cause := m.cause
	if cause == nil {
		cause = writeErr
	}

	total := durationToMillis(time.Since(m.start))
	attrs := []attribute.KeyValue{
		attribute.String("http.route", m.route),
		attribute.String("http.request.method", m.method),
		attribute.Int("http.status_code", status),
		attribute.Int("employees.records", m.records),
		attribute.Float64("employees.total_ms", total),
	}
	if m.storeDuration > 0 {
		attrs = append(attrs, attribute.Float64("employees.store_ms", durationToMillis(m.storeDuration)))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String("employees.error_stage", m.errorStage))
	}

	if m.span != nil {
		m.span.SetAttributes(attrs...)
		if cause != nil {
			m.span.RecordError(cause)
		}
		if status >= http.StatusInternalServerError {
			msg := http.StatusText(status)
			if cause != nil {
				msg = cause.Error()
			}
			m.span.SetStatus(codes.Error, msg)
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}

	fields := log.Fields{
		"route":    m.route,
		"method":   m.method,
		"status":   status,
		"total_ms": total,
		"records":  m.records,
	}
	if m.storeDuration > 0 {
		fields["store_ms"] = durationToMillis(m.storeDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if cause != nil {
		fields["error"] = cause.Error()
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.HasTraceID() {
			fields["trace_id"] = sc.TraceID().String()
			fields["span_id"] = sc.SpanID().String()
		}
	}

	entry := m.logger.WithFields(fields)
	switch {
	case status >= http.StatusInternalServerError:
		entry.Error(requestLogMessage)
	case status >= http.StatusBadRequest:
		entry.Warn(requestLogMessage)
	default:
		entry.Info(requestLogMessage)
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
