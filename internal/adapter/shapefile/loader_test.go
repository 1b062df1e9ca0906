package shapefile

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/municipio-temperatura/internal/domain"
)

type fakeRow struct {
	g      geom.Geom
	fields map[string]string
}

type fakeDecoder struct {
	rows []fakeRow
	i    int
	err  error
}

func (f *fakeDecoder) DecodeRowFields(_ ...string) (geom.Geom, map[string]string, bool) {
	if f.i >= len(f.rows) {
		return nil, nil, false
	}
	r := f.rows[f.i]
	f.i++
	return r.g, r.fields, true
}

func (f *fakeDecoder) Error() error { return f.err }

func unitSquare() geom.Polygon {
	return geom.Polygon{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}}}
}

func ibgeFields(code, name, uf string) map[string]string {
	return map[string]string{"CD_MUN": code, "NM_MUN": name, "SIGLA_UF": uf}
}

func TestLoader_Decode(t *testing.T) {
	l := NewLoader(DefaultFields, slog.Default())

	d := &fakeDecoder{rows: []fakeRow{
		{unitSquare(), ibgeFields("1100015", "Alta Floresta D'Oeste ", "RO")},
		{geom.MultiPolygon{unitSquare()}, ibgeFields("3550308", "São Paulo", "SP")},
	}}

	ms, err := l.decode(d)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "1100015", ms[0].Code)
	assert.Equal(t, "Alta Floresta D'Oeste", ms[0].Name, "trailing DBF padding is trimmed")
	assert.Equal(t, "RO", ms[0].State)
	assert.Equal(t, "São Paulo", ms[1].Name)
}

func TestLoader_DecodeErrors(t *testing.T) {
	l := NewLoader(DefaultFields, slog.Default())

	tests := []struct {
		name string
		rows []fakeRow
		err  error
	}{
		{"null geometry", []fakeRow{{nil, ibgeFields("1", "a", "AC")}}, domain.ErrDataIntegrity},
		{"point geometry", []fakeRow{{geom.Point{X: 1, Y: 1}, ibgeFields("1", "a", "AC")}}, domain.ErrDataIntegrity},
		{"missing column", []fakeRow{{unitSquare(), map[string]string{"CD_MUN": "1"}}}, domain.ErrDataIntegrity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.decode(&fakeDecoder{rows: tt.rows})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	t.Run("decoder error", func(t *testing.T) {
		boom := errors.New("truncated dbf")
		_, err := l.decode(&fakeDecoder{err: boom})
		assert.ErrorIs(t, err, boom)
	})
}

func TestLoader_CustomFields(t *testing.T) {
	l := NewLoader(Fields{Code: "GEOCODIGO", Name: "NOME", State: "UF"}, slog.Default())
	d := &fakeDecoder{rows: []fakeRow{
		{unitSquare(), map[string]string{"GEOCODIGO": "5300108", "NOME": "Brasília", "UF": "DF"}},
	}}

	ms, err := l.decode(d)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "5300108", ms[0].Code)
	assert.Equal(t, "DF", ms[0].State)
}

func TestReadPrj(t *testing.T) {
	dir := t.TempDir()
	shpPath := filepath.Join(dir, "BR_Municipios_2024.shp")

	crs, err := readPrj(shpPath)
	require.NoError(t, err)
	assert.Nil(t, crs, "no sidecar")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "BR_Municipios_2024.prj"), []byte(domain.WGS84Definition), 0o644))
	crs, err = readPrj(shpPath)
	require.NoError(t, err)
	require.NotNil(t, crs)
	assert.Equal(t, domain.WGS84Definition, crs.Definition)
}

func TestLoader_LoadMissingFile(t *testing.T) {
	l := NewLoader(DefaultFields, slog.Default())
	_, err := l.Load(filepath.Join(t.TempDir(), "missing.shp"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfig)
}
