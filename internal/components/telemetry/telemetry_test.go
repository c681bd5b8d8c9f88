package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestScopedAPI(t *testing.T) {
	rec := NewRecorder()
	tel := NewScopedAPI("extract", NewScopedAPI("lexical", rec))

	tel.ReportWarning("tokenize", "extra")
	tel.ReportCount("skipped", 3)

	reports := rec.Reports()
	require.Len(t, reports, 2)
	require.Equal(t, "lexical: extract: tokenize", reports[0].ID)
	require.Equal(t, []any{"extra"}, reports[0].Params)
	require.Equal(t, REPORT_COUNT, reports[1].Kind)
	require.Equal(t, int64(3), reports[1].Count)

	require.Len(t, rec.Find(REPORT_WARNING, "tokenize"), 1)
	require.Len(t, rec.Find(REPORT_BROKEN, "tokenize"), 0)
}

func TestMetricsAPI(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	rec := NewRecorder()
	tel, err := NewMetricsAPI(provider.Meter("test"), rec)
	require.NoError(t, err)

	tel.ReportWarning("normalizer.coerce")
	tel.ReportWarning("normalizer.coerce")
	tel.ReportBroken("engine.run")
	tel.ReportCount("tabular.skipped", 4)
	tel.ReportDebug("ignored by metrics")

	// the decorated api still sees everything
	require.Len(t, rec.Reports(), 5)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	sums := map[string]int64{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		switch data := m.Data.(type) {
		case metricdata.Sum[int64]:
			for _, dp := range data.DataPoints {
				id, _ := dp.Attributes.Value(attribute.Key("id"))
				sums[m.Name+"/"+id.AsString()] = dp.Value
			}
		case metricdata.Histogram[int64]:
			for _, dp := range data.DataPoints {
				id, _ := dp.Attributes.Value(attribute.Key("id"))
				sums[m.Name+"/"+id.AsString()] = dp.Sum
			}
		}
	}

	require.Equal(t, int64(2), sums[metric_warnings+"/normalizer.coerce"])
	require.Equal(t, int64(1), sums[metric_broken+"/engine.run"])
	require.Equal(t, int64(4), sums[metric_counts+"/tabular.skipped"])
}
