package application

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	spanPrefix     = "UC."
	publishPeer    = "outbox"
	publishTimeout = 300 * time.Millisecond
)

// Instrumentation holds the RED metrics, tracer and base logger shared by a service's use cases.
type Instrumentation struct {
	log    observability.Logger
	tracer observability.Tracer

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
	pubFailures  observability.Counter   // event_publish_failed_total{event}
}

func NewInstrumentation(service string, tel observability.Observability) Instrumentation {
	log, tracer, metrics := observability.Resolve(tel)
	return Instrumentation{
		log:          log.With(observability.F("service", service)),
		tracer:       tracer,
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
		pubFailures:  metrics.Counter(observability.MEventPublishFailures),
	}
}

func (in Instrumentation) Logger() observability.Logger { return in.log }

// Run tracks one use case execution. Status carries an UPPER_SNAKE reason code.
type Run struct {
	ctx     context.Context
	span    trace.Span
	log     observability.Logger
	in      Instrumentation
	useCase string
	start   time.Time

	outcome string
	status  string
	fields  []observability.Field
}

// Begin opens the UC span and derives the run logger from the request logger on ctx.
func (in Instrumentation) Begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Run) {
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := in.tracer.Start(ctx, spanPrefix+spanName, attrs...)

	fields := []observability.Field{observability.F("use_case", useCase)}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	logger := logctx.FromOr(ctx, in.log).With(fields...)

	return ctx, &Run{
		ctx:     ctx,
		span:    span,
		log:     logger,
		in:      in,
		useCase: useCase,
		start:   time.Now(),
		outcome: "success",
		status:  "OK",
	}
}

func (r *Run) Logger() observability.Logger { return r.log }

func (r *Run) Span() trace.Span { return r.span }

// Fail marks the run as an error with the given reason code.
func (r *Run) Fail(status string) {
	r.outcome, r.status = "error", status
}

// Reject marks a caller-side rejection; it is not counted as a server error.
func (r *Run) Reject(status string) {
	r.outcome, r.status = "rejected", status
}

// Note replaces the reason code without changing the outcome.
func (r *Run) Note(status string) {
	r.status = status
}

// Annotate adds fields to the closing use_case_done line.
func (r *Run) Annotate(fields ...observability.Field) {
	r.fields = append(r.fields, fields...)
}

// End closes the span, records RED metrics and writes the use_case_done line.
func (r *Run) End(err error) {
	lat := time.Since(r.start).Seconds()
	if err != nil && r.outcome == "success" {
		r.outcome, r.status = "error", "UNEXPECTED_ERROR"
	}

	if r.span != nil {
		if err != nil {
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, r.status)
		} else {
			r.span.SetStatus(codes.Ok, r.status)
		}
		r.span.End()
	}

	r.in.reqCounter.Add(1,
		observability.L("use_case", r.useCase),
		observability.L("outcome", r.outcome),
	)
	r.in.durHistogram.Observe(lat,
		observability.L("use_case", r.useCase),
	)

	fields := append([]observability.Field{
		observability.F("outcome", r.outcome),
		observability.F("status", r.status),
		observability.F("latency_seconds", lat),
	}, r.fields...)
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	r.log.Info("use_case_done", fields...)
}

// External records a call to a collaborator (gateway, carrier, outbox).
func (in Instrumentation) External(peer, endpoint, outcome string, started time.Time) {
	in.extCounter.Add(1,
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	in.extHistogram.Observe(time.Since(started).Seconds(),
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
	)
}

// Publish hands e to the outbox after the state change is durable. Failures are recorded on the
// run and never change its outcome.
func (in Instrumentation) Publish(ctx context.Context, run *Run, pub outbox.Publisher, e outbox.Event) {
	if pub == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	started := time.Now()
	outcome := "success"
	err := pub.Publish(pubCtx, e)
	if err == nil && pubCtx.Err() != nil {
		err = pubCtx.Err()
	}
	if err != nil {
		outcome = "error"
		in.pubFailures.Add(1, observability.L("event", e.EventName()))
		run.span.RecordError(err)
		run.Note("EVENT_PUBLISH_FAILED")
		run.Annotate(observability.F("event_publish_error", err.Error()))
		run.log.Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err),
		)
	}
	in.External(publishPeer, e.EventName(), outcome, started)
}
