package out

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"pahm/internal/modules/practice/domain"
	practiceout "pahm/internal/modules/practice/port/out"
)

const (
	meterName      = "pahm"
	serviceVersion = "1.0.0"
)

type OTelConfig struct {
	Endpoint string
	Enabled  bool
	Insecure bool
}

// OTelMetrics reports completed sessions to an OTLP collector.
type OTelMetrics struct {
	provider      *sdkmetric.MeterProvider
	sessionsTotal metric.Int64Counter
	tapsTotal     metric.Int64Counter
	durationHist  metric.Float64Histogram
	qualityHist   metric.Float64Histogram
	presentHist   metric.Int64Histogram
}

func NewOTelMetrics(ctx context.Context, cfg OTelConfig) (practiceout.MetricsExporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("otel metrics disabled or endpoint not configured")
	}
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts,
			otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			otlpmetricgrpc.WithInsecure(),
		)
	}
	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}
	return NewOTelMetricsWithReader(ctx, sdkmetric.NewPeriodicReader(exp))
}

// NewOTelMetricsWithReader builds the instruments on top of any reader.
func NewOTelMetricsWithReader(ctx context.Context, reader sdkmetric.Reader) (*OTelMetrics, error) {
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(meterName),
		semconv.ServiceVersion(serviceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	meter := provider.Meter(meterName)

	m := &OTelMetrics{provider: provider}
	if m.sessionsTotal, err = meter.Int64Counter("pahm_sessions_total",
		metric.WithDescription("Completed practice sessions"),
		metric.WithUnit("{session}"),
	); err != nil {
		return nil, fmt.Errorf("create sessions counter: %w", err)
	}
	if m.tapsTotal, err = meter.Int64Counter("pahm_taps_total",
		metric.WithDescription("Attention taps per PAHM category"),
		metric.WithUnit("{tap}"),
	); err != nil {
		return nil, fmt.Errorf("create taps counter: %w", err)
	}
	if m.durationHist, err = meter.Float64Histogram("pahm_session_duration_seconds",
		metric.WithDescription("Actual practice duration"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}
	if m.qualityHist, err = meter.Float64Histogram("pahm_session_quality",
		metric.WithDescription("Session quality score"),
	); err != nil {
		return nil, fmt.Errorf("create quality histogram: %w", err)
	}
	if m.presentHist, err = meter.Int64Histogram("pahm_session_present_percent",
		metric.WithDescription("Share of taps in the present row"),
		metric.WithUnit("%"),
	); err != nil {
		return nil, fmt.Errorf("create present histogram: %w", err)
	}
	return m, nil
}

func (m *OTelMetrics) ExportSession(ctx context.Context, s domain.CompletedSession) error {
	opt := metric.WithAttributes(
		attribute.String("stage", strconv.Itoa(s.StageID)),
		attribute.String("end_reason", string(s.EndReason)),
		attribute.Bool("fully_completed", s.IsFullyCompleted),
	)
	m.sessionsTotal.Add(ctx, 1, opt)
	m.durationHist.Record(ctx, float64(s.ActualDurationSeconds), opt)
	m.qualityHist.Record(ctx, s.QualityScore, opt)
	m.presentHist.Record(ctx, int64(s.PresentPercentage), opt)
	for _, c := range domain.Categories() {
		if n := s.Tally.Count(c); n > 0 {
			m.tapsTotal.Add(ctx, int64(n), metric.WithAttributes(
				attribute.String("category", c.Key()),
				attribute.String("stage", strconv.Itoa(s.StageID)),
			))
		}
	}
	return nil
}

// Close flushes pending metrics.
func (m *OTelMetrics) Close(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

// NoopMetrics is used when no collector is configured.
type NoopMetrics struct{}

func NewNoopMetrics() practiceout.MetricsExporter { return NoopMetrics{} }

func (NoopMetrics) ExportSession(context.Context, domain.CompletedSession) error { return nil }
func (NoopMetrics) Close(context.Context) error                                  { return nil }
