package out_test

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	practiceout "pahm/internal/modules/practice/adapter/out"
	"pahm/internal/modules/practice/domain"
)

func TestOTelMetricsExportSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	metrics, err := practiceout.NewOTelMetricsWithReader(ctx, reader)
	if err != nil {
		t.Fatalf("create metrics: %v", err)
	}
	defer metrics.Close(ctx)

	var tally domain.Tally
	for i := 0; i < 10; i++ {
		tally.Increment(domain.PresentNeutral)
	}
	tally.Increment(domain.PastNeutral)
	tally.Increment(domain.PastNeutral)
	session := domain.CompletedSession{
		ID:                    "s-1",
		Timestamp:             time.Date(2026, 3, 1, 7, 30, 0, 0, time.UTC),
		ActualDurationSeconds: 1800,
		StageID:               2,
		IsFullyCompleted:      true,
		PresentPercentage:     83,
		QualityScore:          9.0,
		Tally:                 tally,
		EndReason:             domain.EndReasonExpired,
	}
	if err := metrics.ExportSession(ctx, session); err != nil {
		t.Fatalf("export: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	sums := map[string]int64{}
	seen := map[string]bool{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			seen[m.Name] = true
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	if sums["pahm_sessions_total"] != 1 {
		t.Fatalf("expected one session counted, got %d", sums["pahm_sessions_total"])
	}
	if sums["pahm_taps_total"] != 12 {
		t.Fatalf("expected 12 taps counted, got %d", sums["pahm_taps_total"])
	}
	for _, name := range []string{"pahm_session_duration_seconds", "pahm_session_quality", "pahm_session_present_percent"} {
		if !seen[name] {
			t.Fatalf("missing instrument %s", name)
		}
	}
}

func TestNewOTelMetricsDisabled(t *testing.T) {
	t.Parallel()
	if _, err := practiceout.NewOTelMetrics(context.Background(), practiceout.OTelConfig{}); err == nil {
		t.Fatalf("expected error for disabled exporter")
	}
}
