package domain

import (
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/geom/proj"
)

// WGS84Definition is the PROJ definition of EPSG:4326, the common reference
// system for boundaries and temperature grids.
const WGS84Definition = "+proj=longlat +datum=WGS84 +no_defs"

// equivalenceTolerance is the largest coordinate shift, in target units,
// that still counts as an identity transform.
const equivalenceTolerance = 1e-9

// probePoints are lon/lat-like coordinates spread over Brazil. They are
// pushed through a transform to decide whether two systems are the same.
var probePoints = [][2]float64{
	{-50.0, -15.0},
	{-35.2, -5.8},
	{-67.8, -9.9},
	{-53.4, -33.7},
	{-60.0, 4.5},
}

// CRS is a parsed coordinate reference system together with the definition
// text it was parsed from.
type CRS struct {
	Definition string
	SR         *proj.SR
}

// ParseCRS parses a PROJ.4 string or an ESRI/OGC WKT definition, as found in
// shapefile and grid .prj sidecars. AXIS nodes of EPSG-style WKT are dropped
// before parsing: coordinates are always read as easting/longitude first.
func ParseCRS(def string) (*CRS, error) {
	def = strings.TrimSpace(def)
	if def == "" {
		return nil, fmt.Errorf("parse crs: %w", ErrMissingCRS)
	}
	sr, err := proj.Parse(stripWKTAxis(def))
	if err != nil {
		return nil, fmt.Errorf("parse crs %q: %w", truncate(def, 60), err)
	}
	return &CRS{Definition: def, SR: sr}, nil
}

// WGS84 returns a fresh EPSG:4326 reference system.
func WGS84() *CRS {
	c, err := ParseCRS(WGS84Definition)
	if err != nil {
		panic(err)
	}
	return c
}

// Equivalent reports whether coordinates expressed in c are already
// expressed in other, by checking that the transform between them leaves a
// set of probe points in place.
func (c *CRS) Equivalent(other *CRS) (bool, error) {
	if c == nil || other == nil {
		return false, fmt.Errorf("%w: %w", ErrDataIntegrity, ErrMissingCRS)
	}
	if c == other || c.Definition == other.Definition {
		return true, nil
	}
	t, err := c.SR.NewTransform(other.SR)
	if err != nil {
		return false, fmt.Errorf("build transform: %w", err)
	}
	for _, p := range probePoints {
		x, y, err := t(p[0], p[1])
		if err != nil {
			return false, nil
		}
		if math.Abs(x-p[0]) > equivalenceTolerance || math.Abs(y-p[1]) > equivalenceTolerance {
			return false, nil
		}
	}
	return true, nil
}

// String returns the definition text.
func (c *CRS) String() string {
	if c == nil {
		return "<undefined>"
	}
	return c.Definition
}

// stripWKTAxis removes every AXIS[...] node from a WKT definition. Other text,
// including PROJ strings, passes through unchanged.
func stripWKTAxis(def string) string {
	var b strings.Builder
	b.Grow(len(def))
	for i := 0; i < len(def); {
		if def[i] == ',' {
			if end, ok := axisNodeEnd(def, i+1); ok {
				i = end
				continue
			}
		}
		b.WriteByte(def[i])
		i++
	}
	return b.String()
}

// axisNodeEnd returns the index just past the AXIS node starting at start,
// ignoring leading whitespace.
func axisNodeEnd(def string, start int) (int, bool) {
	j := start
	for j < len(def) && strings.ContainsRune(" \t\r\n", rune(def[j])) {
		j++
	}
	if !strings.HasPrefix(strings.ToUpper(def[j:min(j+5, len(def))]), "AXIS[") {
		return 0, false
	}
	depth, quoted := 0, false
	for k := j + 4; k < len(def); k++ {
		switch c := def[k]; {
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return k + 1, true
			}
		}
	}
	return 0, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
