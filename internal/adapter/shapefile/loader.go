// Package shapefile loads the municipal boundary layer from an ESRI
// shapefile.
package shapefile

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"

	"github.com/couchcryptid/municipio-temperatura/internal/domain"
)

// Fields names the attribute columns holding code, name and state.
type Fields struct {
	Code  string
	Name  string
	State string
}

// DefaultFields are the IBGE Malha Municipal column names.
var DefaultFields = Fields{Code: "CD_MUN", Name: "NM_MUN", State: "SIGLA_UF"}

// rowDecoder is the subset of *shp.Decoder the loader needs.
type rowDecoder interface {
	DecodeRowFields(fieldNames ...string) (geom.Geom, map[string]string, bool)
	Error() error
}

// Loader reads municipal boundaries.
type Loader struct {
	fields Fields
	logger *slog.Logger
}

// NewLoader creates a Loader reading the given attribute columns.
func NewLoader(fields Fields, logger *slog.Logger) *Loader {
	return &Loader{fields: fields, logger: logger}
}

// Load decodes every record of the shapefile at path, in file order. The
// reference system comes from the .prj sidecar; a shapefile without one
// yields a layer with a nil CRS, which alignment later rejects.
func (l *Loader) Load(path string) (*domain.Layer, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open shapefile %s: %w", domain.ErrConfig, path, err)
	}
	defer d.Close()

	crs, err := readPrj(path)
	if err != nil {
		return nil, fmt.Errorf("load shapefile %s: %w", path, err)
	}
	if crs == nil {
		l.logger.Warn("shapefile has no .prj sidecar", "path", path)
	}

	ms, err := l.decode(d)
	if err != nil {
		return nil, fmt.Errorf("load shapefile %s: %w", path, err)
	}

	layer, err := domain.NewLayer(crs, ms)
	if err != nil {
		return nil, fmt.Errorf("load shapefile %s: %w", path, err)
	}
	l.logger.Info("municipalities loaded", "path", path, "count", layer.Len(), "crs", truncate(crs.String(), 80))
	return layer, nil
}

func (l *Loader) decode(d rowDecoder) ([]domain.Municipality, error) {
	var ms []domain.Municipality
	for {
		g, fields, more := d.DecodeRowFields(l.fields.Code, l.fields.Name, l.fields.State)
		if !more {
			break
		}
		m, err := l.toMunicipality(len(ms), g, fields)
		if err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return ms, nil
}

func (l *Loader) toMunicipality(row int, g geom.Geom, fields map[string]string) (domain.Municipality, error) {
	for _, col := range []string{l.fields.Code, l.fields.Name, l.fields.State} {
		if _, ok := fields[col]; !ok {
			return domain.Municipality{}, fmt.Errorf("%w: record %d: missing attribute column %s", domain.ErrDataIntegrity, row, col)
		}
	}
	m := domain.Municipality{
		Code:  strings.TrimSpace(fields[l.fields.Code]),
		Name:  strings.TrimSpace(fields[l.fields.Name]),
		State: strings.TrimSpace(fields[l.fields.State]),
	}
	if g == nil {
		return m, fmt.Errorf("%w: municipality %s has a null geometry", domain.ErrDataIntegrity, m.Code)
	}
	poly, ok := g.(geom.Polygonal)
	if !ok {
		return m, fmt.Errorf("%w: municipality %s has %T geometry, want polygon", domain.ErrDataIntegrity, m.Code, g)
	}
	m.Geometry = poly
	return m, nil
}

func readPrj(path string) (*domain.CRS, error) {
	prj := strings.TrimSuffix(path, ".shp") + ".prj"
	b, err := os.ReadFile(prj)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read prj: %w", err)
	}
	if strings.TrimSpace(string(b)) == "" {
		return nil, nil
	}
	return domain.ParseCRS(string(b))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
