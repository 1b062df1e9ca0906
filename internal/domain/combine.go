package domain

import "fmt"

// Combiner merges per-month zonal results into one value per municipality.
// Months are added one at a time as each raster finishes; the table is owned
// by the combiner and only it writes to it.
//
// With several months the result is the mean of the defined months; a
// municipality undefined in every month stays undefined. Missing months are
// skipped, never zero-filled or interpolated. With exactly one month the
// values pass through unchanged.
type Combiner struct {
	size   int
	months int
	first  []Option[float64]
	sums   []float64
	counts []int
}

// NewCombiner creates a Combiner for a layer of size municipalities.
func NewCombiner(size int) *Combiner {
	return &Combiner{
		size:   size,
		sums:   make([]float64, size),
		counts: make([]int, size),
	}
}

// Add folds one month of zonal results into the table. values must be
// indexed like the layer.
func (c *Combiner) Add(values []Option[float64]) error {
	if len(values) != c.size {
		return fmt.Errorf("%w: month has %d values, expected %d", ErrDataIntegrity, len(values), c.size)
	}
	if c.months == 0 {
		c.first = make([]Option[float64], c.size)
		copy(c.first, values)
	}
	for i, v := range values {
		if x, ok := v.Get(); ok {
			c.sums[i] += x
			c.counts[i]++
		}
	}
	c.months++
	return nil
}

// Months returns how many months have been added.
func (c *Combiner) Months() int { return c.months }

// Result returns the combined value for every municipality.
func (c *Combiner) Result() []Option[float64] {
	out := make([]Option[float64], c.size)
	if c.months == 1 {
		copy(out, c.first)
		return out
	}
	for i := range out {
		if c.counts[i] == 0 {
			out[i] = None[float64]()
			continue
		}
		out[i] = Some(c.sums[i] / float64(c.counts[i]))
	}
	return out
}

// CountUndefined returns how many values are None.
func CountUndefined(values []Option[float64]) int {
	n := 0
	for _, v := range values {
		if v.IsNone() {
			n++
		}
	}
	return n
}
