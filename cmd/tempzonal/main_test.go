package main

import (
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/municipio-temperatura/internal/config"
	"github.com/couchcryptid/municipio-temperatura/internal/domain"
	"github.com/couchcryptid/municipio-temperatura/internal/zonal"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("tempzonal"))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, kctx
}

func TestCLI_ParsesZonalFlags(t *testing.T) {
	cli, kctx := parse(t, "zonal", "--mes", "3", "--limite", "50", "--escala", "0.1", "--debug", "--strategy", "area", "-o", "out.csv")

	assert.Equal(t, "zonal", kctx.Command())
	assert.Equal(t, "3", cli.Zonal.Mes)
	assert.Equal(t, "50", cli.Zonal.Limite)
	assert.Equal(t, "0.1", cli.Zonal.Escala)
	assert.True(t, cli.Zonal.Debug)
	assert.Equal(t, "area", cli.Zonal.Strategy)
	assert.Equal(t, "out.csv", cli.Zonal.Output)
}

func TestCLI_ParsesStatsAndClip(t *testing.T) {
	cli, kctx := parse(t, "-v", "stats", "--csv", "in.csv", "--outdir", "out")
	assert.Equal(t, "stats", kctx.Command())
	assert.True(t, cli.Verbose)
	assert.Equal(t, "in.csv", cli.Stats.CSV)
	assert.Equal(t, "out", cli.Stats.Outdir)

	cli, kctx = parse(t, "clip", "--outdir", "clipped")
	assert.Equal(t, "clip", kctx.Command())
	assert.Equal(t, "raster/wc2.1_30s_tavg_*", cli.Clip.Input)
	assert.Equal(t, "clipped", cli.Clip.Outdir)
}

func TestZonalOptions(t *testing.T) {
	cfg := config.Defaults()

	month, opts, err := (&ZonalCmd{Mes: "7", Limite: "10", Escala: "1.0"}).options(&cfg)
	require.NoError(t, err)
	assert.Equal(t, domain.Some(7), month)
	assert.Equal(t, 10, opts.Limit)
	assert.Equal(t, domain.Some(1.0), opts.ScaleOverride)
	assert.Equal(t, zonal.StrategyCenter, opts.Strategy)
	assert.Equal(t, domain.DefaultPlausibleRange, opts.Plausible)
	assert.InDelta(t, domain.DefaultScaleThreshold, opts.ScaleThreshold, 0)

	month, opts, err = (&ZonalCmd{Strategy: "area"}).options(&cfg)
	require.NoError(t, err)
	assert.True(t, month.IsNone())
	assert.True(t, opts.ScaleOverride.IsNone())
	assert.Zero(t, opts.Limit)
	assert.Equal(t, zonal.StrategyArea, opts.Strategy)
}

func TestZonalOptions_Invalid(t *testing.T) {
	cfg := config.Defaults()
	tests := []struct {
		name string
		cmd  ZonalCmd
	}{
		{"month zero", ZonalCmd{Mes: "0"}},
		{"month thirteen", ZonalCmd{Mes: "13"}},
		{"month not a number", ZonalCmd{Mes: "março"}},
		{"zero limit", ZonalCmd{Limite: "0"}},
		{"negative limit", ZonalCmd{Limite: "-1"}},
		{"limit not a number", ZonalCmd{Limite: "dez"}},
		{"unsupported scale", ZonalCmd{Escala: "0.5"}},
		{"scale not a number", ZonalCmd{Escala: "dez"}},
		{"unknown strategy", ZonalCmd{Strategy: "bilinear"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.cmd.options(&cfg)
			assert.ErrorIs(t, err, domain.ErrConfig)
		})
	}
}
