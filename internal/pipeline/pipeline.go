package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/municipio-temperatura/internal/domain"
	"github.com/couchcryptid/municipio-temperatura/internal/observability"
	"github.com/couchcryptid/municipio-temperatura/internal/zonal"
)

// monthsPerYear is the number of monthly rasters in a complete climatology.
const monthsPerYear = 12

// RasterOpener reads one monthly raster fully into memory.
type RasterOpener interface {
	Open(path string) (*domain.Raster, error)
}

// Loader writes the final per-municipality table.
type Loader interface {
	Load(ctx context.Context, records []domain.OutputRecord) error
}

// Options tunes one zonal run.
type Options struct {
	// Limit keeps only the first N municipalities when positive.
	Limit int
	// ScaleOverride forces the scale factor for every raster.
	ScaleOverride domain.Option[float64]
	// ScaleThreshold is the detection threshold; zero uses the default.
	ScaleThreshold float64
	Plausible      domain.PlausibleRange
	Strategy       zonal.Strategy
	// Debug enables per-raster diagnostics at debug level.
	Debug bool
}

// Result describes a finished run.
type Result struct {
	Records   []domain.OutputRecord
	Months    int
	Undefined int
}

// Pipeline orchestrates the open-aggregate-combine-write sequence. Rasters
// are processed one at a time and released before the next is opened.
type Pipeline struct {
	opener      RasterOpener
	transformer *ZonalTransformer
	loader      Loader
	opts        Options
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
}

// New creates a Pipeline with the given stages and observability.
func New(o RasterOpener, l Loader, opts Options, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Pipeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		opener:      o,
		transformer: NewTransformer(opts, logger),
		loader:      l,
		opts:        opts,
		logger:      logger,
		metrics:     metrics,
		clock:       clock,
	}
}

// Run aggregates every source over layer, combines the months, and hands one
// record per municipality to the loader. Nothing is written when any raster
// fails or ctx is cancelled before the last raster finishes.
func (p *Pipeline) Run(ctx context.Context, layer *domain.Layer, sources []domain.RasterSource) (*Result, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no rasters selected", domain.ErrConfig)
	}
	if p.opts.Limit > 0 {
		layer = layer.Head(p.opts.Limit)
	}

	p.logger.Info("pipeline started",
		"municipalities", layer.Len(),
		"rasters", len(sources),
		"strategy", string(p.transformer.aggregator.Strategy()),
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	combiner := domain.NewCombiner(layer.Len())
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("zonal run interrupted: %w", err)
		}
		month, err := p.processRaster(ctx, src, layer)
		if err != nil {
			return nil, err
		}
		if err := combiner.Add(month.Values); err != nil {
			return nil, err
		}
	}

	switch combiner.Months() {
	case 1:
		p.logger.Warn("single month selected, temp_media_anual holds that month's mean", "month", sources[0].Month)
	case monthsPerYear:
	default:
		p.logger.Warn("incomplete year, averaging the available months only", "months", combiner.Months())
	}

	values := combiner.Result()
	records, err := domain.BuildRecords(layer, values)
	if err != nil {
		return nil, err
	}
	undefined := domain.CountUndefined(values)
	p.metrics.UndefinedResults.Set(float64(undefined))
	if undefined > 0 {
		p.logger.Warn("municipalities without a temperature", "count", undefined, "total", layer.Len())
	}

	if err := p.loader.Load(ctx, records); err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}

	p.logger.Info("pipeline finished", "records", len(records), "months", combiner.Months(), "undefined", undefined)
	return &Result{Records: records, Months: combiner.Months(), Undefined: undefined}, nil
}

// processRaster opens, aggregates and releases one raster.
func (p *Pipeline) processRaster(ctx context.Context, src domain.RasterSource, layer *domain.Layer) (MonthResult, error) {
	start := p.clock.Now()

	r, err := p.opener.Open(src.Path)
	if err != nil {
		return MonthResult{}, fmt.Errorf("open raster %s: %w", src.Path, err)
	}
	defer r.Close()

	month, err := p.transformer.Transform(ctx, src, r, layer)
	if err != nil {
		return MonthResult{}, err
	}

	label := fmt.Sprintf("%02d", src.Month)
	p.metrics.RastersProcessed.Inc()
	p.metrics.PolygonsAggregated.Add(float64(len(month.Values)))
	p.metrics.CoverageGaps.Add(float64(len(month.Uncovered)))
	p.metrics.ImplausibleValues.Add(float64(month.Implausible))
	p.metrics.ValidPixels.WithLabelValues(label).Set(float64(month.Range.Count))
	p.metrics.ScaleFactor.WithLabelValues(label).Set(month.Scale.Factor)

	elapsed := p.clock.Since(start)
	p.metrics.RasterDuration.Observe(elapsed.Seconds())
	p.logger.Info("raster processed",
		"raster", month.Raster,
		"month", src.Month,
		"scale", month.Scale.Factor,
		"scale_source", string(month.Scale.Source),
		"uncovered", len(month.Uncovered),
		"duration", elapsed,
	)
	return month, nil
}
