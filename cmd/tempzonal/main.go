// Command tempzonal computes the mean temperature of every Brazilian
// municipality from WorldClim monthly grids, summarizes the resulting table,
// and clips source grids to the municipal boundaries.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/municipio-temperatura/internal/adapter/shapefile"
	"github.com/couchcryptid/municipio-temperatura/internal/config"
	"github.com/couchcryptid/municipio-temperatura/internal/domain"
	"github.com/couchcryptid/municipio-temperatura/internal/observability"
	"github.com/couchcryptid/municipio-temperatura/internal/zonal"
)

// Global is the state shared by every subcommand.
type Global struct {
	Ctx     context.Context
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.Metrics
	Clock   clockwork.Clock
}

// CLI is the command line definition.
type CLI struct {
	Config  string `short:"c" help:"Optional YAML configuration file" type:"path"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Zonal ZonalCmd `cmd:"" default:"withargs" help:"Compute the mean temperature per municipality"`
	Stats StatsCmd `cmd:"" help:"Summarize a temperature table into ranking and distribution reports"`
	Clip  ClipCmd  `cmd:"" help:"Crop monthly grids to the municipal boundaries"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("tempzonal"),
		kong.Description("Zonal temperature statistics for Brazilian municipalities."),
		kong.UsageOnError(),
	)
	os.Exit(run(kctx, &cli))
}

func run(kctx *kong.Context, cli *CLI) int {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	level := cfg.LogLevel
	if cli.Verbose {
		level = "debug"
	}
	logger := observability.NewLogger(level, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = kctx.Run(&Global{
		Ctx:     ctx,
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Clock:   clockwork.NewRealClock(),
	})

	if werr := observability.WriteTextfile(cfg.MetricsFile); werr != nil {
		logger.Warn("metrics not written", "path", cfg.MetricsFile, "error", werr)
	}
	if err != nil {
		logger.Error("command failed", "command", kctx.Command(), "error", err)
		return 1
	}
	return 0
}

// loadLayer reads the municipal shapefile and aligns it to WGS84.
func loadLayer(cfg *config.Config, logger *slog.Logger) (*domain.Layer, error) {
	fields := shapefile.Fields{Code: cfg.FieldCode, Name: cfg.FieldName, State: cfg.FieldState}
	layer, err := shapefile.NewLoader(fields, logger).Load(cfg.Shapefile)
	if err != nil {
		return nil, err
	}
	return zonal.Align(layer, domain.WGS84())
}
