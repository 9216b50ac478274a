// Package rendermetrics records measurements about renders, both as
// OpenCensus stats and as OpenTelemetry instruments on the global meter.
package rendermetrics

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/global"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	OutcomeKey = tag.MustNewKey("outcome")

	renderCount   = stats.Int64("raycaster/renders", "Renders attempted", stats.UnitDimensionless)
	pixelCount    = stats.Int64("raycaster/pixels", "Pixels in attempted renders", stats.UnitDimensionless)
	renderLatency = stats.Float64("raycaster/render_latency", "Wall time of a render", stats.UnitMilliseconds)

	RenderCountView = &view.View{
		Name:        "raycaster/renders",
		Description: "Count of renders, by outcome",
		TagKeys:     []tag.Key{OutcomeKey},
		Measure:     renderCount,
		Aggregation: view.Count(),
	}

	PixelCountView = &view.View{
		Name:        "raycaster/pixels",
		Description: "Sum of pixels rendered, by outcome",
		TagKeys:     []tag.Key{OutcomeKey},
		Measure:     pixelCount,
		Aggregation: view.Sum(),
	}

	RenderLatencyView = &view.View{
		Name:        "raycaster/render_latency",
		Description: "Distribution of render wall time in milliseconds, by outcome",
		TagKeys:     []tag.Key{OutcomeKey},
		Measure:     renderLatency,
		Aggregation: view.Distribution(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000),
	}
)

type otelInstruments struct {
	renders metric.Int64Counter
	pixels  metric.Int64Counter
	latency metric.Float64ValueRecorder
}

func newOTelInstruments(m metric.Meter) *otelInstruments {
	mm := metric.Must(m)
	return &otelInstruments{
		renders: mm.NewInt64Counter("raycaster/renders", metric.WithDescription("Renders attempted")),
		pixels:  mm.NewInt64Counter("raycaster/pixels", metric.WithDescription("Pixels in attempted renders")),
		latency: mm.NewFloat64ValueRecorder("raycaster/render_latency", metric.WithDescription("Wall time of a render in milliseconds")),
	}
}

// The global meter delegates to whichever provider is installed later, so
// the instruments can be created before the pipeline exists.
var instruments = newOTelInstruments(global.Meter("raycaster/rendermetrics"))

func Views() []*view.View {
	return []*view.View{RenderCountView, PixelCountView, RenderLatencyView}
}

// Register registers every view with the default OpenCensus worker.
func Register() error {
	return view.Register(Views()...)
}

// Record notes one render.  OpenCensus records are dropped unless the views
// are registered; OpenTelemetry ones unless a meter provider is installed.
func Record(ctx context.Context, outcome string, pixels int, latency time.Duration) error {
	labels := []attribute.KeyValue{attribute.String(OutcomeKey.Name(), outcome)}
	instruments.renders.Add(ctx, 1, labels...)
	instruments.pixels.Add(ctx, int64(pixels), labels...)
	instruments.latency.Record(ctx, float64(latency)/float64(time.Millisecond), labels...)

	return stats.RecordWithOptions(
		ctx,
		stats.WithTags(tag.Upsert(OutcomeKey, outcome)),
		stats.WithMeasurements(
			renderCount.M(1),
			pixelCount.M(int64(pixels)),
			renderLatency.M(float64(latency)/float64(time.Millisecond)),
		),
	)
}
