package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metric_broken   = "shuassist.reports.broken"
	metric_warnings = "shuassist.reports.warnings"
	metric_counts   = "shuassist.reports.counts"
)

// MetricsAPI decorates another API and additionally publishes every broken/warning report as a
// counter increment and every count report as a histogram point. Instruments are keyed by the
// report id through the "id" attribute.
type MetricsAPI struct {
	inner    API
	broken   metric.Int64Counter
	warnings metric.Int64Counter
	counts   metric.Int64Histogram
}

// NewMetricsAPI creates the instruments on the given meter.
func NewMetricsAPI(meter metric.Meter, inner API) (MetricsAPI, error) {
	broken, err := meter.Int64Counter(
		metric_broken,
		metric.WithDescription("number of broken component reports"),
	)
	if err != nil {
		return MetricsAPI{}, err
	}
	warnings, err := meter.Int64Counter(
		metric_warnings,
		metric.WithDescription("number of warning reports"),
	)
	if err != nil {
		return MetricsAPI{}, err
	}
	counts, err := meter.Int64Histogram(
		metric_counts,
		metric.WithDescription("point-in-time counts reported by components"),
	)
	if err != nil {
		return MetricsAPI{}, err
	}
	return MetricsAPI{
		inner:    inner,
		broken:   broken,
		warnings: warnings,
		counts:   counts,
	}, nil
}

func idAttr(id string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("id", id))
}

func (m MetricsAPI) ReportBroken(id string, params ...any) {
	m.broken.Add(context.Background(), 1, idAttr(id))
	m.inner.ReportBroken(id, params...)
}

func (m MetricsAPI) ReportWarning(id string, params ...any) {
	m.warnings.Add(context.Background(), 1, idAttr(id))
	m.inner.ReportWarning(id, params...)
}

func (m MetricsAPI) ReportDebug(msg string, params ...any) {
	m.inner.ReportDebug(msg, params...)
}

func (m MetricsAPI) ReportCount(id string, count int64) {
	m.counts.Record(context.Background(), count, idAttr(id))
	m.inner.ReportCount(id, count)
}
