package summary

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/municipio-temperatura/internal/adapter/report"
	"github.com/couchcryptid/municipio-temperatura/internal/domain"
)

func rec(code, state string, temp domain.Option[float64]) domain.OutputRecord {
	return domain.OutputRecord{Code: code, Name: "Mun " + code, State: state, Temperature: temp}
}

func sampleRecords() []domain.OutputRecord {
	return []domain.OutputRecord{
		rec("1", "SP", domain.Some(10.0)),
		rec("2", "SP", domain.Some(20.0)),
		rec("3", "RJ", domain.Some(30.0)),
		rec("4", "RJ", domain.None[float64]()),
		rec("5", "MG", domain.Some(15.0)),
		rec("6", "MG", domain.Some(18.5)),
	}
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"lower quartile", []float64{1, 2, 3, 4}, 0.25, 1.75},
		{"median even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"upper quartile", []float64{1, 2, 3, 4}, 0.75, 3.25},
		{"median odd", []float64{1, 5, 9}, 0.5, 5},
		{"max", []float64{1, 5, 9}, 1, 9},
		{"min", []float64{1, 5, 9}, 0, 1},
		{"single", []float64{7}, 0.25, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Quantile(tt.sorted, tt.p), 1e-12)
		})
	}
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}

func TestCompute_Describe(t *testing.T) {
	rep, err := Compute(sampleRecords())
	require.NoError(t, err)

	d := rep.Describe
	assert.Equal(t, 5, d.Count)
	assert.Equal(t, 1, rep.Dropped)
	assert.InDelta(t, 18.7, d.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(54.7), d.Std, 1e-9)
	assert.InDelta(t, 10.0, d.Min, 0)
	assert.InDelta(t, 30.0, d.Max, 0)
	assert.InDelta(t, 15.0, d.Q25, 1e-12)
	assert.InDelta(t, 18.5, d.Q50, 1e-12)
	assert.InDelta(t, 20.0, d.Q75, 1e-12)
}

func TestCompute_SingleValueStdIsNaN(t *testing.T) {
	rep, err := Compute([]domain.OutputRecord{rec("1", "SP", domain.Some(21.0))})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(rep.Describe.Std))
	assert.Empty(t, rep.Outliers)
}

func TestCompute_ByState(t *testing.T) {
	rep, err := Compute(sampleRecords())
	require.NoError(t, err)

	want := []StateMean{
		{State: "RJ", Mean: 30, Count: 1},
		{State: "MG", Mean: 16.75, Count: 2},
		{State: "SP", Mean: 15, Count: 2},
	}
	if diff := cmp.Diff(want, rep.ByState); diff != "" {
		t.Fatalf("by state mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_RankingsAreStableAndCapped(t *testing.T) {
	var records []domain.OutputRecord
	for i := range 12 {
		records = append(records, rec(fmt.Sprintf("%02d", i), "GO", domain.Some(float64(20+i%3))))
	}

	rep, err := Compute(records)
	require.NoError(t, err)
	require.Len(t, rep.Hottest, TopN)
	require.Len(t, rep.Coldest, TopN)

	assert.Equal(t, []string{"02", "05", "08", "11"}, codes(rep.Hottest[:4]))
	assert.Equal(t, []string{"00", "03", "06", "09"}, codes(rep.Coldest[:4]))
}

func TestCompute_Outliers(t *testing.T) {
	var records []domain.OutputRecord
	for i, v := range []float64{40, 10, 11, 12, 13, 14, -5} {
		records = append(records, rec(fmt.Sprint(i), "BA", domain.Some(v)))
	}
	rep, err := Compute(records)
	require.NoError(t, err)

	// sorted: -5 10 11 12 13 14 40; Q1 = 10.5, Q3 = 13.5, IQR = 3
	assert.InDelta(t, 6.0, rep.OutlierLow, 1e-12)
	assert.InDelta(t, 18.0, rep.OutlierHigh, 1e-12)
	assert.Equal(t, []string{"6", "0"}, codes(rep.Outliers))
}

func TestBandCounts(t *testing.T) {
	got := bandCounts([]float64{-50, 15, 15.01, 18, 21.5, 24, 27, 27.1, 50, 51, -60})
	want := []BandCount{
		{Label: "< 15°C", Count: 2},
		{Label: "15–18°C", Count: 2},
		{Label: "18–21°C", Count: 0},
		{Label: "21–24°C", Count: 2},
		{Label: "24–27°C", Count: 1},
		{Label: "> 27°C", Count: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("bands mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_NoDefinedTemperature(t *testing.T) {
	_, err := Compute([]domain.OutputRecord{rec("1", "SP", domain.None[float64]())})
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)

	_, err = Compute(nil)
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
}

func TestWriteAll(t *testing.T) {
	rep, err := Compute(sampleRecords())
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "stats_out")
	paths, err := WriteAll(dir, rep)
	require.NoError(t, err)
	assert.Len(t, paths, 5)

	hottest, err := report.ReadFile(filepath.Join(dir, HottestFile))
	require.NoError(t, err)
	require.Len(t, hottest, 5)
	assert.Equal(t, "3", hottest[0].Code)
	assert.Equal(t, domain.Some(30.0), hottest[0].Temperature)

	byState, err := os.ReadFile(filepath.Join(dir, ByStateFile))
	require.NoError(t, err)
	assert.Equal(t, "estado,temp_media_anual\nRJ,30\nMG,16.75\nSP,15\n", string(byState))

	bands, err := os.ReadFile(filepath.Join(dir, BandsFile))
	require.NoError(t, err)
	assert.Equal(t, "faixa,quantidade\n< 15°C,2\n15–18°C,0\n18–21°C,2\n21–24°C,0\n24–27°C,0\n> 27°C,1\n", string(bands))

	// fences are [7.5, 27.5]
	outliers, err := report.ReadFile(filepath.Join(dir, OutliersFile))
	require.NoError(t, err)
	require.Len(t, outliers, 1)
	assert.Equal(t, "3", outliers[0].Code)
}

func TestPrint(t *testing.T) {
	rep, err := Compute(sampleRecords())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, rep))
	out := buf.String()
	assert.Contains(t, out, "Top 10 cidades mais quentes")
	assert.Contains(t, out, "Mun 3")
	assert.Contains(t, out, "sem temperatura")
	assert.Contains(t, out, "> 27°C")
}

func codes(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Code
	}
	return out
}
