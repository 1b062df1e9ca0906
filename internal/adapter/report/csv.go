// Package report reads and writes the per-municipality temperature table.
package report

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/municipio-temperatura/internal/domain"
)

// Columns is the stable schema shared with the summary stage.
var Columns = []string{"codigo_ibge", "municipio", "estado", "temp_media_anual"}

// CSVWriter writes the result table to a file, replacing any previous one.
// It implements pipeline.Loader.
type CSVWriter struct {
	path   string
	logger *slog.Logger
}

// NewCSVWriter creates a writer targeting path.
func NewCSVWriter(path string, logger *slog.Logger) *CSVWriter {
	return &CSVWriter{path: path, logger: logger}
}

// Path returns the output file path.
func (w *CSVWriter) Path() string { return w.path }

// Load writes every record. The file is written to a temporary name and
// renamed into place, so a failed run never leaves a partial table behind.
func (w *CSVWriter) Load(ctx context.Context, records []domain.OutputRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*")
	if err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, records); err != nil {
		tmp.Close()
		return fmt.Errorf("write csv %s: %w", w.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write csv %s: %w", w.path, err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("write csv %s: %w", w.path, err)
	}
	w.logger.Info("csv written", "path", w.path, "rows", len(records))
	return nil
}

// Write encodes records with a header row. Undefined temperatures are empty.
func Write(out io.Writer, records []domain.OutputRecord) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{r.Code, r.Name, r.State, domain.FormatFloat(r.Temperature)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadFile loads a table written by Write.
func ReadFile(path string) ([]domain.OutputRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open csv: %w", domain.ErrConfig, err)
	}
	defer f.Close()

	records, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	return records, nil
}

// Read decodes a table. Columns are located by header name, so extra or
// reordered columns are accepted. Empty, "nan" or "NaN" temperatures read as
// undefined.
func Read(in io.Reader) ([]domain.OutputRecord, error) {
	cr := csv.NewReader(in)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty csv", domain.ErrDataIntegrity)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, c := range Columns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: csv missing column %s", domain.ErrDataIntegrity, c)
		}
	}

	var records []domain.OutputRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		temp, err := parseTemperature(row[idx["temp_media_anual"]])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", domain.ErrDataIntegrity, line, err)
		}
		records = append(records, domain.OutputRecord{
			Code:        row[idx["codigo_ibge"]],
			Name:        row[idx["municipio"]],
			State:       row[idx["estado"]],
			Temperature: temp,
		})
	}
	return records, nil
}

func parseTemperature(s string) (domain.Option[float64], error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return domain.None[float64](), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.None[float64](), err
	}
	return domain.Some(v), nil
}
