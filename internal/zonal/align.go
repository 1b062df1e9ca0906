// Package zonal overlays municipal polygons on temperature grids: it aligns
// the two reference systems, averages the cells inside each polygon and clips
// grids to the area covered by the polygon layer.
package zonal

import (
	"fmt"

	"github.com/ctessum/geom"

	"github.com/couchcryptid/municipio-temperatura/internal/domain"
)

// Align returns layer expressed in target. When the layer already uses an
// equivalent system it is returned unchanged, so aligning twice is a no-op.
// Either side lacking a reference system is a data-integrity error.
func Align(layer *domain.Layer, target *domain.CRS) (*domain.Layer, error) {
	if layer.CRS() == nil {
		return nil, fmt.Errorf("align polygons: layer: %w: %w", domain.ErrDataIntegrity, domain.ErrMissingCRS)
	}
	if target == nil {
		return nil, fmt.Errorf("align polygons: raster: %w: %w", domain.ErrDataIntegrity, domain.ErrMissingCRS)
	}

	same, err := layer.CRS().Equivalent(target)
	if err != nil {
		return nil, fmt.Errorf("align polygons: %w", err)
	}
	if same {
		return layer, nil
	}

	trans, err := layer.CRS().SR.NewTransform(target.SR)
	if err != nil {
		return nil, fmt.Errorf("align polygons: build transform: %w", err)
	}

	geometries := make([]geom.Polygonal, layer.Len())
	for i := range geometries {
		m := layer.At(i)
		g, err := m.Geometry.Transform(trans)
		if err != nil {
			return nil, fmt.Errorf("align polygons: reproject %s: %w", m.Code, err)
		}
		p, ok := g.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("align polygons: %w: %s is not polygonal after reprojection", domain.ErrDataIntegrity, m.Code)
		}
		geometries[i] = p
	}
	return layer.WithGeometries(target, geometries)
}
