package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/municipio-temperatura/internal/domain"
)

const testNoData = -9999.0

// --- mocks ---

type mockOpener struct {
	rasters map[string]*domain.Raster
	errs    map[string]error
	opened  []string
}

func (m *mockOpener) Open(path string) (*domain.Raster, error) {
	m.opened = append(m.opened, path)
	if err := m.errs[path]; err != nil {
		return nil, err
	}
	r, ok := m.rasters[path]
	if !ok {
		return nil, errors.New("no such raster")
	}
	return r, nil
}

type mockLoader struct {
	calls   int
	records []domain.OutputRecord
	err     error
}

func (m *mockLoader) Load(ctx context.Context, records []domain.OutputRecord) error {
	m.calls++
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.err != nil {
		return m.err
	}
	m.records = records
	return nil
}

// --- fixtures ---

func rect(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0},
		{X: x1, Y: y0},
		{X: x1, Y: y1},
		{X: x0, Y: y1},
		{X: x0, Y: y0},
	}}
}

// testLayer has two municipalities over the 2x1 test grid and one far away.
func testLayer(t *testing.T) *domain.Layer {
	t.Helper()
	l, err := domain.NewLayer(domain.WGS84(), []domain.Municipality{
		{Code: "3106200", Name: "Belo Horizonte", State: "MG", Geometry: rect(0, 0, 1, 1)},
		{Code: "3304557", Name: "Rio de Janeiro", State: "RJ", Geometry: rect(1, 0, 2, 1)},
		{Code: "2613909", Name: "Fernando de Noronha", State: "PE", Geometry: rect(10, 10, 11, 11)},
	})
	require.NoError(t, err)
	return l
}

// monthRaster builds a 2x1 grid of 1° cells whose lower-left corner is (0, 0).
func monthRaster(t *testing.T, name string, crs *domain.CRS, left, right float32) *domain.Raster {
	t.Helper()
	r, err := domain.NewRaster(name, 2, 1,
		domain.GeoTransform{OriginX: 0, OriginY: 1, CellWidth: 1, CellHeight: 1},
		domain.Some(testNoData), crs, []float32{left, right})
	require.NoError(t, err)
	return r
}

// twoMonthFixture returns an opener with:
//
//	tavg_01: 20, 30 (already °C)
//	tavg_02: 220, nodata (tenths of °C)
func twoMonthFixture(t *testing.T) (*mockOpener, []domain.RasterSource) {
	t.Helper()
	opener := &mockOpener{rasters: map[string]*domain.Raster{
		"tavg_01.asc": monthRaster(t, "tavg_01", domain.WGS84(), 20, 30),
		"tavg_02.asc": monthRaster(t, "tavg_02", domain.WGS84(), 220, testNoData),
	}}
	return opener, []domain.RasterSource{
		{Month: 1, Path: "tavg_01.asc"},
		{Month: 2, Path: "tavg_02.asc"},
	}
}
