package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaleDetector_Detect(t *testing.T) {
	tests := []struct {
		name     string
		detector ScaleDetector
		rng      ValueRange
		factor   float64
		source   ScaleSource
		noValid  bool
	}{
		{"tenths of a degree", ScaleDetector{}, ValueRange{Min: -12, Max: 900, Count: 4, Total: 4}, ScaleDeciCelsius, ScaleFromData, false},
		{"plain celsius", ScaleDetector{}, ValueRange{Min: 3, Max: 25, Count: 4, Total: 4}, ScaleCelsius, ScaleFromData, false},
		{"exactly at threshold stays celsius", ScaleDetector{}, ValueRange{Max: 80, Count: 1, Total: 1}, ScaleCelsius, ScaleFromData, false},
		{"just above threshold", ScaleDetector{}, ValueRange{Max: 80.01, Count: 1, Total: 1}, ScaleDeciCelsius, ScaleFromData, false},
		{"all nodata", ScaleDetector{}, ValueRange{Total: 9}, ScaleCelsius, ScaleFromDefault, true},
		{"override beats data", ScaleDetector{Override: Some(1.0)}, ValueRange{Max: 900, Count: 1, Total: 1}, ScaleCelsius, ScaleFromOverride, false},
		{"override on celsius raster", ScaleDetector{Override: Some(0.1)}, ValueRange{Max: 25, Count: 1, Total: 1}, ScaleDeciCelsius, ScaleFromOverride, false},
		{"override with all nodata", ScaleDetector{Override: Some(0.1)}, ValueRange{Total: 9}, ScaleDeciCelsius, ScaleFromOverride, true},
		{"custom threshold", ScaleDetector{Threshold: 30}, ValueRange{Max: 45, Count: 1, Total: 1}, ScaleDeciCelsius, ScaleFromData, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.detector.Detect(tt.rng)
			assert.InDelta(t, tt.factor, got.Factor, 1e-12)
			assert.Equal(t, tt.source, got.Source)
			assert.Equal(t, tt.noValid, got.NoValidPixels)
		})
	}
}

func TestValidScaleOverride(t *testing.T) {
	assert.True(t, ValidScaleOverride(1.0))
	assert.True(t, ValidScaleOverride(0.1))
	assert.False(t, ValidScaleOverride(0.5))
	assert.False(t, ValidScaleOverride(0))
}

func TestPlausibleRange_Apply(t *testing.T) {
	r := DefaultPlausibleRange

	assert.Equal(t, Some(21.5), r.Apply(Some(21.5)))
	assert.Equal(t, Some(-20.0), r.Apply(Some(-20.0)))
	assert.Equal(t, Some(50.0), r.Apply(Some(50.0)))
	assert.True(t, r.Apply(Some(50.1)).IsNone())
	assert.True(t, r.Apply(Some(-90.0)).IsNone())
	assert.True(t, r.Apply(None[float64]()).IsNone())

	disabled := PlausibleRange{}
	assert.False(t, disabled.Enabled())
	assert.Equal(t, Some(900.0), disabled.Apply(Some(900.0)))
}
