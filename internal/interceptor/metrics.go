package interceptor

import (
	"context"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const meterName = "implicit-flow/interceptor"

type metrics struct {
	outcomes metric.Int64Counter
	tracer   trace.Tracer
}

func newMetrics() (*metrics, error) {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion(otel.Version()))

	outcomes, err := meter.Int64Counter(
		"redirect.outcome",
		metric.WithDescription("Handled redirect attempts by outcome"),
		metric.WithUnit("attempt"),
	)
	if err != nil {
		return nil, oops.In("Interceptor").Wrapf(err, "creating redirect.outcome counter")
	}

	return &metrics{
		outcomes: outcomes,
		tracer:   otel.Tracer(meterName, trace.WithInstrumentationVersion(otel.Version())),
	}, nil
}

func (m *metrics) start(ctx context.Context, h string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "redirect.handle", trace.WithAttributes(attribute.String("surface", h)))
}

func (m *metrics) record(ctx context.Context, span trace.Span, o Outcome, err error) {
	outcome := o.String()
	if err != nil {
		outcome = "failed"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("outcome", outcome))

	m.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
