package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/municipio-temperatura/internal/adapter/asciigrid"
	"github.com/couchcryptid/municipio-temperatura/internal/adapter/report"
	"github.com/couchcryptid/municipio-temperatura/internal/config"
	"github.com/couchcryptid/municipio-temperatura/internal/domain"
	"github.com/couchcryptid/municipio-temperatura/internal/observability"
	"github.com/couchcryptid/municipio-temperatura/internal/pipeline"
	"github.com/couchcryptid/municipio-temperatura/internal/zonal"
)

// ZonalCmd implements the 'zonal' command.
type ZonalCmd struct {
	Mes      string `help:"Process a single month (1-12); the output then holds that month's mean"`
	Limite   string `help:"Process only the first N municipalities (N >= 1)"`
	Escala   string `help:"Force the unit scale: 1.0 for °C, 0.1 for tenths of °C"`
	Debug    bool   `help:"Log per-raster diagnostics"`
	Strategy string `help:"Cell selection: center or area (default from config)"`
	Output   string `short:"o" help:"Output CSV path (default from config)"`
}

// Run executes the zonal pipeline.
func (c *ZonalCmd) Run(g *Global) error {
	month, opts, err := c.options(g.Config)
	if err != nil {
		return err
	}

	logger := g.Logger
	if c.Debug {
		logger = observability.NewLogger("debug", g.Config.LogFormat)
	}

	paths, err := asciigrid.Discover(g.Config.RasterGlob)
	if err != nil {
		return err
	}
	sources, err := asciigrid.Select(paths, month)
	if err != nil {
		return err
	}
	logger.Info("rasters selected", "count", len(sources), "glob", g.Config.RasterGlob)

	layer, err := loadLayer(g.Config, logger)
	if err != nil {
		return err
	}

	output := g.Config.OutputCSV
	if c.Output != "" {
		output = c.Output
	}
	p := pipeline.New(asciigrid.NewReader(), report.NewCSVWriter(output, logger), opts, logger, g.Metrics, g.Clock)

	res, err := p.Run(g.Ctx, layer, sources)
	if err != nil {
		return err
	}
	logger.Info("output written", "path", output, "records", len(res.Records), "undefined", res.Undefined)
	return nil
}

// options validates the flags and merges them with the configuration.
func (c *ZonalCmd) options(cfg *config.Config) (domain.Option[int], pipeline.Options, error) {
	month, err := parseMonth(c.Mes)
	if err != nil {
		return month, pipeline.Options{}, err
	}
	limit, err := parseLimit(c.Limite)
	if err != nil {
		return month, pipeline.Options{}, err
	}
	scale, err := parseScale(c.Escala)
	if err != nil {
		return month, pipeline.Options{}, err
	}

	name := cfg.Strategy
	if c.Strategy != "" {
		name = c.Strategy
	}
	strategy, err := zonal.ParseStrategy(name)
	if err != nil {
		return month, pipeline.Options{}, err
	}

	return month, pipeline.Options{
		Limit:          limit,
		ScaleOverride:  scale,
		ScaleThreshold: cfg.ScaleThreshold,
		Plausible:      cfg.Plausible(),
		Strategy:       strategy,
		Debug:          c.Debug,
	}, nil
}

func parseMonth(s string) (domain.Option[int], error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.None[int](), nil
	}
	m, err := strconv.Atoi(s)
	if err != nil || m < 1 || m > 12 {
		return domain.None[int](), fmt.Errorf("%w: --mes must be between 1 and 12, got %q", domain.ErrConfig, s)
	}
	return domain.Some(m), nil
}

// parseLimit returns 0, meaning every municipality, when the flag is absent.
func parseLimit(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: --limite must be a positive integer, got %q", domain.ErrConfig, s)
	}
	return n, nil
}

func parseScale(s string) (domain.Option[float64], error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.None[float64](), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !domain.ValidScaleOverride(f) {
		return domain.None[float64](), fmt.Errorf("%w: --escala must be 1.0 or 0.1, got %q", domain.ErrConfig, s)
	}
	return domain.Some(f), nil
}
