package domain

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// GeoTransform maps grid indices to coordinates. The origin is the outer
// corner of the top-left cell; rows run south, columns run east.
type GeoTransform struct {
	OriginX    float64
	OriginY    float64
	CellWidth  float64
	CellHeight float64
}

// Raster is one single-band grid held in memory. A raster is immutable while
// open; Close drops the pixel buffer so at most one month is resident at a
// time.
type Raster struct {
	Name      string
	Cols      int
	Rows      int
	Transform GeoTransform
	NoData    Option[float64]
	CRS       *CRS

	data []float32
}

// NewRaster builds a raster over data laid out row-major, top row first.
func NewRaster(name string, cols, rows int, t GeoTransform, nodata Option[float64], crs *CRS, data []float32) (*Raster, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%w: raster %s has size %dx%d", ErrDataIntegrity, name, cols, rows)
	}
	if len(data) != cols*rows {
		return nil, fmt.Errorf("%w: raster %s has %d values, expected %d", ErrDataIntegrity, name, len(data), cols*rows)
	}
	if t.CellWidth <= 0 || t.CellHeight <= 0 {
		return nil, fmt.Errorf("%w: raster %s has non-positive cell size", ErrDataIntegrity, name)
	}
	return &Raster{
		Name:      name,
		Cols:      cols,
		Rows:      rows,
		Transform: t,
		NoData:    nodata,
		CRS:       crs,
		data:      data,
	}, nil
}

// Value returns the raw value at (row, col).
func (r *Raster) Value(row, col int) float32 {
	return r.data[row*r.Cols+col]
}

// Data exposes the pixel buffer, row-major.
func (r *Raster) Data() []float32 { return r.data }

// IsValid reports whether v is a measurement: finite and not the nodata
// sentinel. Comparison happens at float32 precision, the storage type.
func (r *Raster) IsValid(v float32) bool {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	if nd, ok := r.NoData.Get(); ok && v == float32(nd) {
		return false
	}
	return true
}

// Range scans every cell and summarizes the valid ones.
func (r *Raster) Range() ValueRange {
	vr := ValueRange{Total: len(r.data), Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range r.data {
		if !r.IsValid(v) {
			continue
		}
		f := float64(v)
		vr.Count++
		vr.Min = min(vr.Min, f)
		vr.Max = max(vr.Max, f)
	}
	if vr.Count == 0 {
		vr.Min, vr.Max = math.NaN(), math.NaN()
	}
	return vr
}

// CellCenter returns the coordinates of the center of (row, col).
func (r *Raster) CellCenter(row, col int) geom.Point {
	t := r.Transform
	return geom.Point{
		X: t.OriginX + (float64(col)+0.5)*t.CellWidth,
		Y: t.OriginY - (float64(row)+0.5)*t.CellHeight,
	}
}

// CellBounds returns the footprint of (row, col).
func (r *Raster) CellBounds(row, col int) *geom.Bounds {
	t := r.Transform
	x0 := t.OriginX + float64(col)*t.CellWidth
	y1 := t.OriginY - float64(row)*t.CellHeight
	return &geom.Bounds{
		Min: geom.Point{X: x0, Y: y1 - t.CellHeight},
		Max: geom.Point{X: x0 + t.CellWidth, Y: y1},
	}
}

// Extent returns the footprint of the whole grid.
func (r *Raster) Extent() *geom.Bounds {
	t := r.Transform
	return &geom.Bounds{
		Min: geom.Point{X: t.OriginX, Y: t.OriginY - float64(r.Rows)*t.CellHeight},
		Max: geom.Point{X: t.OriginX + float64(r.Cols)*t.CellWidth, Y: t.OriginY},
	}
}

// Window is an inclusive block of grid cells.
type Window struct {
	Row0, Row1 int
	Col0, Col1 int
}

// Rows returns the number of rows in the window.
func (w Window) Rows() int { return w.Row1 - w.Row0 + 1 }

// Cols returns the number of columns in the window.
func (w Window) Cols() int { return w.Col1 - w.Col0 + 1 }

// WindowFor returns the cells touched by b, clipped to the grid. ok is false
// when b does not overlap the grid.
func (r *Raster) WindowFor(b *geom.Bounds) (Window, bool) {
	t := r.Transform
	c0 := int(math.Floor((b.Min.X - t.OriginX) / t.CellWidth))
	c1 := int(math.Ceil((b.Max.X-t.OriginX)/t.CellWidth)) - 1
	r0 := int(math.Floor((t.OriginY - b.Max.Y) / t.CellHeight))
	r1 := int(math.Ceil((t.OriginY-b.Min.Y)/t.CellHeight)) - 1

	if c1 < 0 || r1 < 0 || c0 >= r.Cols || r0 >= r.Rows {
		return Window{}, false
	}
	w := Window{
		Row0: max(r0, 0),
		Row1: min(r1, r.Rows-1),
		Col0: max(c0, 0),
		Col1: min(c1, r.Cols-1),
	}
	if w.Row0 > w.Row1 || w.Col0 > w.Col1 {
		return Window{}, false
	}
	return w, true
}

// Close releases the pixel buffer. The raster must not be read afterwards.
func (r *Raster) Close() error {
	r.data = nil
	return nil
}

// RasterSource is one monthly grid selected for a run.
type RasterSource struct {
	Month int
	Path  string
}
