// Package summary derives descriptive statistics from the per-municipality
// temperature table: overall distribution, extremes, per-state means,
// temperature bands and IQR outliers.
package summary

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/municipio-temperatura/internal/domain"
)

// TopN is the length of the hottest and coldest rankings.
const TopN = 10

// Entry is a municipality with a defined temperature.
type Entry struct {
	Code        string
	Name        string
	State       string
	Temperature float64
}

// Describe mirrors the usual count/mean/std/min/quartiles/max summary.
// Std is the sample standard deviation.
type Describe struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Q25   float64
	Q50   float64
	Q75   float64
	Max   float64
}

// StateMean is the mean temperature of one state's municipalities.
type StateMean struct {
	State string
	Mean  float64
	Count int
}

// Band is one temperature interval of the distribution table.
type Band struct {
	Label string
	Lower float64
	Upper float64
}

// Bands are closed on the right; the first one also includes its lower edge.
var Bands = []Band{
	{Label: "< 15°C", Lower: -50, Upper: 15},
	{Label: "15–18°C", Lower: 15, Upper: 18},
	{Label: "18–21°C", Lower: 18, Upper: 21},
	{Label: "21–24°C", Lower: 21, Upper: 24},
	{Label: "24–27°C", Lower: 24, Upper: 27},
	{Label: "> 27°C", Lower: 27, Upper: 50},
}

// BandCount is the number of municipalities inside a band.
type BandCount struct {
	Label string
	Count int
}

// Report is the full set of statistics for one table.
type Report struct {
	Describe Describe
	Hottest  []Entry
	Coldest  []Entry
	ByState  []StateMean
	Bands    []BandCount
	Outliers []Entry
	// OutlierLow and OutlierHigh are the IQR fences.
	OutlierLow  float64
	OutlierHigh float64
	// Dropped counts rows without a temperature.
	Dropped int
}

// Entries keeps the records with a defined temperature, in input order, and
// returns how many were dropped.
func Entries(records []domain.OutputRecord) ([]Entry, int) {
	out := make([]Entry, 0, len(records))
	for _, r := range records {
		t, ok := r.Temperature.Get()
		if !ok || math.IsNaN(t) {
			continue
		}
		out = append(out, Entry{Code: r.Code, Name: r.Name, State: r.State, Temperature: t})
	}
	return out, len(records) - len(out)
}

// Compute builds the report. It fails when no record has a temperature.
func Compute(records []domain.OutputRecord) (*Report, error) {
	entries, dropped := Entries(records)
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no municipality has a temperature", domain.ErrDataIntegrity)
	}

	values := make([]float64, len(entries))
	for i, e := range entries {
		values[i] = e.Temperature
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	rep := &Report{
		Describe: describe(values, sorted),
		Hottest:  ranked(entries, func(a, b float64) bool { return a > b }),
		Coldest:  ranked(entries, func(a, b float64) bool { return a < b }),
		ByState:  byState(entries),
		Bands:    bandCounts(values),
		Dropped:  dropped,
	}

	iqr := rep.Describe.Q75 - rep.Describe.Q25
	rep.OutlierLow = rep.Describe.Q25 - 1.5*iqr
	rep.OutlierHigh = rep.Describe.Q75 + 1.5*iqr
	for _, e := range entries {
		if e.Temperature < rep.OutlierLow || e.Temperature > rep.OutlierHigh {
			rep.Outliers = append(rep.Outliers, e)
		}
	}
	sort.SliceStable(rep.Outliers, func(i, j int) bool {
		return rep.Outliers[i].Temperature < rep.Outliers[j].Temperature
	})
	return rep, nil
}

func describe(values, sorted []float64) Describe {
	d := Describe{
		Count: len(values),
		Mean:  stat.Mean(values, nil),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
		Q25:   Quantile(sorted, 0.25),
		Q50:   Quantile(sorted, 0.50),
		Q75:   Quantile(sorted, 0.75),
		Std:   math.NaN(),
	}
	if len(values) > 1 {
		d.Std = stat.StdDev(values, nil)
	}
	return d
}

// Quantile returns the p-quantile of ascending-sorted values by linear
// interpolation between the closest ranks (h = (n-1)p). gonum's stat.Quantile
// offers only the empirical and type-4 estimators, which disagree with the
// common spreadsheet and dataframe definition.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func ranked(entries []Entry, before func(a, b float64) bool) []Entry {
	out := append([]Entry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool { return before(out[i].Temperature, out[j].Temperature) })
	if len(out) > TopN {
		out = out[:TopN]
	}
	return out
}

func byState(entries []Entry) []StateMean {
	groups := make(map[string][]float64)
	for _, e := range entries {
		groups[e.State] = append(groups[e.State], e.Temperature)
	}
	out := make([]StateMean, 0, len(groups))
	for state, temps := range groups {
		out = append(out, StateMean{State: state, Mean: stat.Mean(temps, nil), Count: len(temps)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mean != out[j].Mean {
			return out[i].Mean > out[j].Mean
		}
		return out[i].State < out[j].State
	})
	return out
}

func bandCounts(values []float64) []BandCount {
	out := make([]BandCount, len(Bands))
	for i, b := range Bands {
		out[i].Label = b.Label
	}
	for _, v := range values {
		for i, b := range Bands {
			lowerOK := v > b.Lower || (i == 0 && v == b.Lower)
			if lowerOK && v <= b.Upper {
				out[i].Count++
				break
			}
		}
	}
	return out
}
