package commands

import (
	"context"
	"log/slog"
	"os"

	"shuassist-backend/internal/components/telemetry"
	"shuassist-backend/internal/extract/kind"
	"shuassist-backend/internal/extract/record"

	"github.com/jedib0t/go-pretty/v6/table"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var tel telemetry.API = telemetry.SlogAPI{}
var metricReader *sdkmetric.ManualReader

func fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func setupTelemetry() {
	text := telemetry.NewTextSlogAPI(os.Stderr, *verbose)
	tel = text
	if !*showMetrics {
		return
	}

	metricReader = sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(metricReader))
	metrics, err := telemetry.NewMetricsAPI(provider.Meter("shuextract-cli"), text)
	if err != nil {
		fatal("create metrics telemetry", err)
	}
	tel = metrics
}

func printMetrics(ctx context.Context) {
	if metricReader == nil {
		return
	}
	var rm metricdata.ResourceMetrics
	err := metricReader.Collect(ctx, &rm)
	if err != nil {
		fatal("collect metrics", err)
	}

	t := newTable()
	t.AppendHeader(table.Row{"Metric", "Report", "Count", "Sum"})
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, point := range data.DataPoints {
					id, _ := point.Attributes.Value("id")
					t.AppendRow(table.Row{m.Name, id.AsString(), point.Value, ""})
				}
			case metricdata.Histogram[int64]:
				for _, point := range data.DataPoints {
					id, _ := point.Attributes.Value("id")
					t.AppendRow(table.Row{m.Name, id.AsString(), point.Count, point.Sum})
				}
			}
		}
	}
	t.Render()
}

// loadKind returns the configuration file when one is given, the built-in kind otherwise.
func loadKind(name, config string) kind.Config {
	if config != "" {
		cfg, err := kind.Load(config)
		if err != nil {
			fatal("failed to load kind config", err)
		}
		return cfg
	}
	cfg, err := kind.Builtin(name)
	if err != nil {
		fatal("failed to load kind", err)
	}
	return cfg
}

// summaryRows turns summaries into records with the sub-period as their first field.
func summaryRows(summaries []record.SummaryRecord) []record.Record {
	rows := make([]record.Record, len(summaries))
	for i, s := range summaries {
		rows[i] = record.Record{
			Section: s.Section,
			Fields:  append([]record.Field{{Name: "sub_period", Value: record.String(s.SubPeriod)}}, s.Fields...),
		}
	}
	return rows
}
