package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/municipio-temperatura/internal/domain"
	"github.com/couchcryptid/municipio-temperatura/internal/zonal"
)

// maxLoggedUncovered caps the municipality codes listed in debug diagnostics.
const maxLoggedUncovered = 10

// MonthResult is the zonal outcome of one monthly raster.
type MonthResult struct {
	Month       int
	Raster      string
	Range       domain.ValueRange
	Scale       domain.ScaleDecision
	Values      []domain.Option[float64]
	Uncovered   []int
	Implausible int
}

// ZonalTransformer turns one raster into per-municipality monthly means:
// scale detection, layer alignment, aggregation, then the plausibility filter.
type ZonalTransformer struct {
	detector   domain.ScaleDetector
	aggregator *zonal.Aggregator
	plausible  domain.PlausibleRange
	debug      bool
	logger     *slog.Logger
}

// NewTransformer creates a ZonalTransformer from run options.
func NewTransformer(opts Options, logger *slog.Logger) *ZonalTransformer {
	return &ZonalTransformer{
		detector: domain.ScaleDetector{
			Threshold: opts.ScaleThreshold,
			Override:  opts.ScaleOverride,
		},
		aggregator: zonal.NewAggregator(opts.Strategy),
		plausible:  opts.Plausible,
		debug:      opts.Debug,
		logger:     logger,
	}
}

// Transform aggregates r over layer. The layer is reprojected to the raster's
// reference system when they differ.
func (t *ZonalTransformer) Transform(ctx context.Context, src domain.RasterSource, r *domain.Raster, layer *domain.Layer) (MonthResult, error) {
	if err := ctx.Err(); err != nil {
		return MonthResult{}, err
	}

	rng := r.Range()
	scale := t.detector.Detect(rng)
	if scale.NoValidPixels {
		t.logger.Warn("raster has no valid pixels, every municipality is undefined this month",
			"raster", r.Name, "month", src.Month, "scale", scale.Factor)
	}

	aligned, err := zonal.Align(layer, r.CRS)
	if err != nil {
		return MonthResult{}, fmt.Errorf("align layer to %s: %w", r.Name, err)
	}

	agg := t.aggregator.Aggregate(r, aligned, scale.Factor)

	out := MonthResult{
		Month:     src.Month,
		Raster:    r.Name,
		Range:     rng,
		Scale:     scale,
		Values:    agg.Values,
		Uncovered: agg.Uncovered,
	}
	for i, v := range out.Values {
		if v.IsNone() {
			continue
		}
		if kept := t.plausible.Apply(v); kept.IsNone() {
			out.Values[i] = kept
			out.Implausible++
		}
	}

	if len(out.Uncovered) > 0 {
		t.logger.Warn("municipalities without coverage",
			"raster", r.Name, "month", src.Month, "count", len(out.Uncovered))
	}
	if t.debug {
		t.logDiagnostics(r, aligned, out)
	}
	return out, nil
}

func (t *ZonalTransformer) logDiagnostics(r *domain.Raster, layer *domain.Layer, m MonthResult) {
	nodata := "unset"
	if v, ok := r.NoData.Get(); ok {
		nodata = domain.FormatFloat(domain.Some(v))
	}
	t.logger.Debug("raster diagnostics",
		"raster", r.Name,
		"month", m.Month,
		"crs", r.CRS.String(),
		"nodata", nodata,
		"valid_pixels", m.Range.Count,
		"total_pixels", m.Range.Total,
		"min", m.Range.Min,
		"max", m.Range.Max,
		"scale", m.Scale.Factor,
		"scale_source", string(m.Scale.Source),
		"strategy", string(t.aggregator.Strategy()),
		"implausible", m.Implausible,
	)

	codes := make([]string, 0, min(len(m.Uncovered), maxLoggedUncovered))
	for _, i := range m.Uncovered {
		if len(codes) == maxLoggedUncovered {
			break
		}
		codes = append(codes, layer.At(i).Code)
	}
	if len(codes) > 0 {
		t.logger.Debug("uncovered municipalities", "raster", r.Name, "sample", codes, "total", len(m.Uncovered))
	}
}
