package domain

import (
	"fmt"

	"github.com/ctessum/geom"
)

// Municipality is one record of the boundary layer.
type Municipality struct {
	Code     string // codigo_ibge
	Name     string // municipio
	State    string // estado
	Geometry geom.Polygonal
}

// Layer is the ordered, read-only collection of municipalities loaded for a
// run. It is passed explicitly to every stage; nothing mutates it after
// construction. Operations that change geometry or membership return a new
// Layer.
type Layer struct {
	crs            *CRS
	municipalities []Municipality
}

// NewLayer validates the records and builds a Layer. Every record needs a
// non-empty geometry and a unique, non-empty code.
func NewLayer(crs *CRS, municipalities []Municipality) (*Layer, error) {
	seen := make(map[string]int, len(municipalities))
	for i, m := range municipalities {
		if m.Code == "" {
			return nil, fmt.Errorf("%w: record %d has no codigo_ibge", ErrDataIntegrity, i)
		}
		if prev, dup := seen[m.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate codigo_ibge %s at records %d and %d", ErrDataIntegrity, m.Code, prev, i)
		}
		seen[m.Code] = i
		if m.Geometry == nil || len(m.Geometry.Polygons()) == 0 {
			return nil, fmt.Errorf("%w: municipality %s has no geometry", ErrDataIntegrity, m.Code)
		}
	}
	owned := make([]Municipality, len(municipalities))
	copy(owned, municipalities)
	return &Layer{crs: crs, municipalities: owned}, nil
}

// CRS returns the reference system the geometries are expressed in. It may
// be nil when the source declared none.
func (l *Layer) CRS() *CRS { return l.crs }

// Len returns the number of municipalities.
func (l *Layer) Len() int { return len(l.municipalities) }

// At returns the i-th municipality in input order.
func (l *Layer) At(i int) Municipality { return l.municipalities[i] }

// Head returns a layer with the first n municipalities in input order. The
// selection is stable across runs. n <= 0 or n >= Len returns l itself.
func (l *Layer) Head(n int) *Layer {
	if n <= 0 || n >= len(l.municipalities) {
		return l
	}
	return &Layer{crs: l.crs, municipalities: l.municipalities[:n:n]}
}

// WithGeometries returns a copy of l with geometries replaced, in order, and
// expressed in crs. Attributes are kept.
func (l *Layer) WithGeometries(crs *CRS, geometries []geom.Polygonal) (*Layer, error) {
	if len(geometries) != len(l.municipalities) {
		return nil, fmt.Errorf("%w: %d geometries for %d municipalities", ErrDataIntegrity, len(geometries), len(l.municipalities))
	}
	out := make([]Municipality, len(l.municipalities))
	for i, m := range l.municipalities {
		m.Geometry = geometries[i]
		out[i] = m
	}
	return &Layer{crs: crs, municipalities: out}, nil
}

// Bounds returns the extent of every geometry in the layer.
func (l *Layer) Bounds() *geom.Bounds {
	var b *geom.Bounds
	for _, m := range l.municipalities {
		mb := m.Geometry.Bounds()
		if b == nil {
			b = &geom.Bounds{Min: mb.Min, Max: mb.Max}
			continue
		}
		b.Min.X = min(b.Min.X, mb.Min.X)
		b.Min.Y = min(b.Min.Y, mb.Min.Y)
		b.Max.X = max(b.Max.X, mb.Max.X)
		b.Max.Y = max(b.Max.Y, mb.Max.Y)
	}
	return b
}

// OutputRecord is one row of the result table.
type OutputRecord struct {
	Code        string
	Name        string
	State       string
	Temperature Option[float64]
}

// BuildRecords pairs each municipality with its combined value. The result
// has exactly one record per municipality, in layer order.
func BuildRecords(layer *Layer, values []Option[float64]) ([]OutputRecord, error) {
	if len(values) != layer.Len() {
		return nil, fmt.Errorf("%w: %d values for %d municipalities", ErrDataIntegrity, len(values), layer.Len())
	}
	records := make([]OutputRecord, layer.Len())
	for i, m := range layer.municipalities {
		records[i] = OutputRecord{
			Code:        m.Code,
			Name:        m.Name,
			State:       m.State,
			Temperature: values[i],
		}
	}
	return records, nil
}
