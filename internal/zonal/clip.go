package zonal

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"

	"github.com/couchcryptid/municipio-temperatura/internal/domain"
)

// DefaultClipNoData is written into clipped grids whose source declared no
// nodata value.
const DefaultClipNoData = -9999.0

type indexedPolygon struct {
	geom.Polygonal
}

// Clip crops r to the extent of layer and sets every cell whose center falls
// in no polygon to nodata. The layer is aligned to r first. The source raster
// is left untouched.
func Clip(r *domain.Raster, layer *domain.Layer) (*domain.Raster, error) {
	aligned, err := Align(layer, r.CRS)
	if err != nil {
		return nil, fmt.Errorf("clip %s: %w", r.Name, err)
	}
	if aligned.Len() == 0 {
		return nil, fmt.Errorf("clip %s: %w: empty polygon layer", r.Name, domain.ErrDataIntegrity)
	}

	w, ok := r.WindowFor(aligned.Bounds())
	if !ok {
		return nil, fmt.Errorf("clip %s: %w: polygons do not overlap the raster", r.Name, domain.ErrDataIntegrity)
	}

	tree := rtree.NewTree(25, 50)
	for i := 0; i < aligned.Len(); i++ {
		tree.Insert(indexedPolygon{aligned.At(i).Geometry})
	}

	nodata, ok := r.NoData.Get()
	if !ok {
		nodata = DefaultClipNoData
	}

	data := make([]float32, 0, w.Rows()*w.Cols())
	for row := w.Row0; row <= w.Row1; row++ {
		for col := w.Col0; col <= w.Col1; col++ {
			v := r.Value(row, col)
			if !r.IsValid(v) || !covered(tree, r, row, col) {
				v = float32(nodata)
			}
			data = append(data, v)
		}
	}

	t := r.Transform
	t.OriginX += float64(w.Col0) * t.CellWidth
	t.OriginY -= float64(w.Row0) * t.CellHeight
	return domain.NewRaster(r.Name, w.Cols(), w.Rows(), t, domain.Some(nodata), r.CRS, data)
}

func covered(tree *rtree.Rtree, r *domain.Raster, row, col int) bool {
	center := r.CellCenter(row, col)
	for _, s := range tree.SearchIntersect(r.CellBounds(row, col)) {
		if center.Within(s.(indexedPolygon).Polygonal) != geom.Outside {
			return true
		}
	}
	return false
}
