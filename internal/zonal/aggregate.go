package zonal

import (
	"fmt"

	"github.com/ctessum/geom"

	"github.com/couchcryptid/municipio-temperatura/internal/domain"
)

// Strategy selects which cells count toward a polygon's mean.
type Strategy string

const (
	// StrategyCenter counts a cell when its center lies inside the polygon or
	// on its boundary. Every counted cell has equal weight.
	StrategyCenter Strategy = "center"

	// StrategyArea counts every cell the polygon overlaps, weighted by the
	// overlapping area.
	StrategyArea Strategy = "area"
)

// ParseStrategy validates a strategy name. Empty selects StrategyCenter.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyCenter:
		return StrategyCenter, nil
	case StrategyArea:
		return StrategyArea, nil
	default:
		return "", fmt.Errorf("%w: unknown zonal strategy %q", domain.ErrConfig, s)
	}
}

// Result is the outcome of one raster over one layer.
type Result struct {
	// Values holds one mean per municipality, in layer order, already scaled.
	Values []domain.Option[float64]
	// Cells holds the number of valid cells used per municipality.
	Cells []int
	// Uncovered lists the layer indices with no valid cell.
	Uncovered []int
}

// Aggregator computes per-polygon means of raster cells.
type Aggregator struct {
	strategy Strategy
}

// NewAggregator creates an Aggregator using strategy.
func NewAggregator(strategy Strategy) *Aggregator {
	if strategy == "" {
		strategy = StrategyCenter
	}
	return &Aggregator{strategy: strategy}
}

// Strategy returns the configured strategy.
func (a *Aggregator) Strategy() Strategy { return a.strategy }

// Aggregate averages the valid cells of r inside every polygon of layer and
// multiplies the mean by scale. The layer must already be aligned to r.
// Polygons with no valid cell get None.
func (a *Aggregator) Aggregate(r *domain.Raster, layer *domain.Layer, scale float64) Result {
	res := Result{
		Values: make([]domain.Option[float64], layer.Len()),
		Cells:  make([]int, layer.Len()),
	}
	for i := 0; i < layer.Len(); i++ {
		poly := layer.At(i).Geometry

		var mean float64
		var n int
		switch a.strategy {
		case StrategyArea:
			mean, n = areaWeightedMean(r, poly)
		default:
			mean, n = centerMean(r, poly)
		}

		res.Cells[i] = n
		if n == 0 {
			res.Values[i] = domain.None[float64]()
			res.Uncovered = append(res.Uncovered, i)
			continue
		}
		res.Values[i] = domain.Some(mean * scale)
	}
	return res
}

func centerMean(r *domain.Raster, poly geom.Polygonal) (float64, int) {
	w, ok := r.WindowFor(poly.Bounds())
	if !ok {
		return 0, 0
	}
	var sum float64
	var n int
	for row := w.Row0; row <= w.Row1; row++ {
		for col := w.Col0; col <= w.Col1; col++ {
			v := r.Value(row, col)
			if !r.IsValid(v) {
				continue
			}
			if r.CellCenter(row, col).Within(poly) == geom.Outside {
				continue
			}
			sum += float64(v)
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

func areaWeightedMean(r *domain.Raster, poly geom.Polygonal) (float64, int) {
	w, ok := r.WindowFor(poly.Bounds())
	if !ok {
		return 0, 0
	}
	var sum, weights float64
	var n int
	for row := w.Row0; row <= w.Row1; row++ {
		for col := w.Col0; col <= w.Col1; col++ {
			v := r.Value(row, col)
			if !r.IsValid(v) {
				continue
			}
			overlap := poly.Intersection(r.CellBounds(row, col))
			if overlap == nil {
				continue
			}
			a := overlap.Area()
			if a <= 0 {
				continue
			}
			sum += float64(v) * a
			weights += a
			n++
		}
	}
	if n == 0 || weights == 0 {
		return 0, 0
	}
	return sum / weights, n
}
