package main

import (
	"fmt"
	"path/filepath"

	"github.com/couchcryptid/municipio-temperatura/internal/adapter/asciigrid"
	"github.com/couchcryptid/municipio-temperatura/internal/domain"
	"github.com/couchcryptid/municipio-temperatura/internal/zonal"
)

// ClipCmd implements the 'clip' command.
type ClipCmd struct {
	Input  string `help:"Glob of source grids" default:"raster/wc2.1_30s_tavg_*"`
	Outdir string `help:"Directory for clipped grids (default from config)"`
}

// Run crops every matching grid to the municipal layer.
func (c *ClipCmd) Run(g *Global) error {
	outdir := g.Config.ClipOutDir
	if c.Outdir != "" {
		outdir = c.Outdir
	}

	paths, err := asciigrid.Discover(c.Input)
	if err != nil {
		return err
	}
	layer, err := loadLayer(g.Config, g.Logger)
	if err != nil {
		return err
	}

	for _, path := range paths {
		if err := g.Ctx.Err(); err != nil {
			return fmt.Errorf("clip interrupted: %w", err)
		}
		out := filepath.Join(outdir, filepath.Base(path))
		if err := clipOne(path, out, layer); err != nil {
			return err
		}
		g.Logger.Info("raster clipped", "source", path, "output", out)
	}
	g.Logger.Info("clip finished", "rasters", len(paths), "dir", outdir)
	return nil
}

func clipOne(src, dst string, layer *domain.Layer) error {
	r, err := asciigrid.Open(src)
	if err != nil {
		return err
	}
	defer r.Close()

	clipped, err := zonal.Clip(r, layer)
	if err != nil {
		return err
	}
	return asciigrid.Write(dst, clipped)
}
