package render

import (
	"context"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	pixelCount = stats.Int64("spheretrace/pixels", "Pixels rendered", stats.UnitDimensionless)
	rayCount   = stats.Int64("spheretrace/rays", "Primary and bounce rays traced", stats.UnitDimensionless)

	modelKey = tag.MustNewKey("model")

	pixelCountView = &view.View{
		Name:        "spheretrace/pixels",
		Description: "Counter of pixels that have been rendered",
		TagKeys:     []tag.Key{modelKey},
		Measure:     pixelCount,
		Aggregation: view.Sum(),
	}
	rayCountView = &view.View{
		Name:        "spheretrace/rays",
		Description: "Counter of rays that have been traced",
		TagKeys:     []tag.Key{modelKey},
		Measure:     rayCount,
		Aggregation: view.Sum(),
	}
)

// RegisterViews makes the render counters visible to OpenCensus exporters.
func RegisterViews() error {
	return view.Register(pixelCountView, rayCountView)
}

func recordChunk(ctx context.Context, opts *Options, pixels, rays int) {
	stats.RecordWithOptions(
		ctx,
		stats.WithTags(tag.Insert(modelKey, opts.Model.String())),
		stats.WithMeasurements(pixelCount.M(int64(pixels)), rayCount.M(int64(rays))))
}
