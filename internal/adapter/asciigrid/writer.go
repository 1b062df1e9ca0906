package asciigrid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/couchcryptid/municipio-temperatura/internal/domain"
)

// Write stores r at path, compressing when the extension asks for it, and
// writes the .prj sidecar when r has a reference system. Existing files are
// overwritten.
func Write(path string, r *domain.Raster) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write raster: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write raster: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("write raster: %w", cerr)
		}
	}()

	var sink io.WriteCloser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		sink = gzip.NewWriter(f)
	case ".zst":
		zw, err := zstd.NewWriter(f)
		if err != nil {
			return fmt.Errorf("write raster: zstd: %w", err)
		}
		sink = zw
	default:
		sink = nopCloser{f}
	}

	if err := Encode(sink, r); err != nil {
		sink.Close()
		return fmt.Errorf("write raster %s: %w", path, err)
	}
	if err := sink.Close(); err != nil {
		return fmt.Errorf("write raster %s: %w", path, err)
	}

	if r.CRS != nil {
		if err := os.WriteFile(SidecarPath(path), []byte(r.CRS.Definition+"\n"), 0o644); err != nil {
			return fmt.Errorf("write prj: %w", err)
		}
	}
	return nil
}

// Encode writes r as an ESRI ASCII grid with a lower-left corner reference.
func Encode(w io.Writer, r *domain.Raster) error {
	bw := bufio.NewWriter(w)
	t := r.Transform

	fmt.Fprintf(bw, "ncols %d\n", r.Cols)
	fmt.Fprintf(bw, "nrows %d\n", r.Rows)
	fmt.Fprintf(bw, "xllcorner %s\n", formatFloat(t.OriginX))
	fmt.Fprintf(bw, "yllcorner %s\n", formatFloat(t.OriginY-float64(r.Rows)*t.CellHeight))
	if t.CellWidth == t.CellHeight {
		fmt.Fprintf(bw, "cellsize %s\n", formatFloat(t.CellWidth))
	} else {
		fmt.Fprintf(bw, "dx %s\n", formatFloat(t.CellWidth))
		fmt.Fprintf(bw, "dy %s\n", formatFloat(t.CellHeight))
	}
	if nd, ok := r.NoData.Get(); ok {
		fmt.Fprintf(bw, "NODATA_value %s\n", strconv.FormatFloat(float64(float32(nd)), 'g', -1, 32))
	}

	data := r.Data()
	for row := 0; row < r.Rows; row++ {
		for col := 0; col < r.Cols; col++ {
			if col > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.FormatFloat(float64(data[row*r.Cols+col]), 'g', -1, 32))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
