package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for a zonal run.
type Metrics struct {
	RastersProcessed   prometheus.Counter
	PolygonsAggregated prometheus.Counter
	CoverageGaps       prometheus.Counter   // polygon-month pairs with no valid cell
	ImplausibleValues  prometheus.Counter   // monthly means discarded by the plausibility filter
	PipelineRunning    prometheus.Gauge
	UndefinedResults   prometheus.Gauge     // municipalities without a final value
	ValidPixels        *prometheus.GaugeVec // labels: month
	ScaleFactor        *prometheus.GaugeVec // labels: month

	RasterDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RastersProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tempzonal",
			Name:      "rasters_processed_total",
			Help:      "Monthly rasters fully aggregated.",
		}),
		PolygonsAggregated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tempzonal",
			Name:      "polygons_aggregated_total",
			Help:      "Polygon-month pairs evaluated.",
		}),
		CoverageGaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tempzonal",
			Name:      "coverage_gaps_total",
			Help:      "Polygon-month pairs without any valid raster cell.",
		}),
		ImplausibleValues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tempzonal",
			Name:      "implausible_values_total",
			Help:      "Monthly means outside the plausible temperature window.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tempzonal",
			Name:      "pipeline_running",
			Help:      "1 while the zonal pipeline is running, 0 otherwise.",
		}),
		UndefinedResults: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tempzonal",
			Name:      "undefined_results",
			Help:      "Municipalities with no combined temperature.",
		}),
		ValidPixels: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tempzonal",
			Name:      "raster_valid_pixels",
			Help:      "Valid (non-nodata) cells per monthly raster.",
		}, []string{"month"}),
		ScaleFactor: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tempzonal",
			Name:      "raster_scale_factor",
			Help:      "Multiplier applied to each monthly raster.",
		}, []string{"month"}),
		RasterDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tempzonal",
			Name:      "raster_duration_seconds",
			Help:      "Time to open, aggregate and release one monthly raster.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}),
	}

	prometheus.MustRegister(
		m.RastersProcessed,
		m.PolygonsAggregated,
		m.CoverageGaps,
		m.ImplausibleValues,
		m.PipelineRunning,
		m.UndefinedResults,
		m.ValidPixels,
		m.ScaleFactor,
		m.RasterDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RastersProcessed:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "tempzonal", Name: "rasters_processed_total"}),
		PolygonsAggregated: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "tempzonal", Name: "polygons_aggregated_total"}),
		CoverageGaps:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "tempzonal", Name: "coverage_gaps_total"}),
		ImplausibleValues:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "tempzonal", Name: "implausible_values_total"}),
		PipelineRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "tempzonal", Name: "pipeline_running"}),
		UndefinedResults:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "tempzonal", Name: "undefined_results"}),
		ValidPixels:        prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "tempzonal", Name: "raster_valid_pixels"}, []string{"month"}),
		ScaleFactor:        prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "tempzonal", Name: "raster_scale_factor"}, []string{"month"}),
		RasterDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "tempzonal", Name: "raster_duration_seconds"}),
	}
}

// WriteTextfile dumps the default registry in the node_exporter textfile
// format. An empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
