// Package asciigrid reads and writes single-band ESRI ASCII grids (.asc),
// optionally gzip- or zstd-compressed, with the reference system taken from a
// .prj sidecar.
package asciigrid

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/couchcryptid/municipio-temperatura/internal/domain"
)

// Reader opens grids from the local filesystem.
// It implements pipeline.RasterOpener.
type Reader struct{}

// NewReader creates a Reader.
func NewReader() *Reader { return &Reader{} }

// Open reads the grid at path into memory. The caller must Close the returned
// raster once its statistics are computed.
func (*Reader) Open(path string) (*domain.Raster, error) {
	return Open(path)
}

// Open reads the grid at path and its .prj sidecar, if any. A grid without a
// sidecar is returned with a nil CRS.
func Open(path string) (*domain.Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raster: %w", err)
	}
	defer f.Close()

	body, closeBody, err := decompress(path, f)
	if err != nil {
		return nil, fmt.Errorf("open raster %s: %w", path, err)
	}
	defer closeBody()

	crs, err := readSidecar(path)
	if err != nil {
		return nil, fmt.Errorf("open raster %s: %w", path, err)
	}

	r, err := Decode(body, BaseName(path), crs)
	if err != nil {
		return nil, fmt.Errorf("open raster %s: %w", path, err)
	}
	return r, nil
}

// header collects the ESRI ASCII grid header keys.
type header struct {
	ncols, nrows int
	xll, yll     float64
	dx, dy       float64
	centerRef    bool
	nodata       domain.Option[float64]
	seen         map[string]bool
}

// Decode parses an ESRI ASCII grid from body. Header keys are
// case-insensitive; both corner and center references are accepted, as is a
// dx/dy pair instead of cellsize.
func Decode(body io.Reader, name string, crs *domain.CRS) (*domain.Raster, error) {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)

	h := header{seen: map[string]bool{}}
	var first string
	for sc.Scan() {
		key := strings.ToLower(sc.Text())
		if !isHeaderKey(key) {
			first = sc.Text()
			break
		}
		if !sc.Scan() {
			return nil, fmt.Errorf("%w: header key %s has no value", domain.ErrDataIntegrity, key)
		}
		if err := h.set(key, sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := h.validate(); err != nil {
		return nil, err
	}

	total := h.ncols * h.nrows
	data := make([]float32, 0, total)
	parse := func(tok string) error {
		v, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return fmt.Errorf("%w: cell %d: %w", domain.ErrDataIntegrity, len(data), err)
		}
		data = append(data, float32(v))
		return nil
	}
	if first != "" {
		if err := parse(first); err != nil {
			return nil, err
		}
	}
	for len(data) < total && sc.Scan() {
		if err := parse(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read cells: %w", err)
	}
	if len(data) != total {
		return nil, fmt.Errorf("%w: grid declares %d cells, found %d", domain.ErrDataIntegrity, total, len(data))
	}

	xll, yll := h.xll, h.yll
	if h.centerRef {
		xll -= h.dx / 2
		yll -= h.dy / 2
	}
	t := domain.GeoTransform{
		OriginX:    xll,
		OriginY:    yll + float64(h.nrows)*h.dy,
		CellWidth:  h.dx,
		CellHeight: h.dy,
	}
	return domain.NewRaster(name, h.ncols, h.nrows, t, h.nodata, crs, data)
}

func isHeaderKey(k string) bool {
	switch k {
	case "ncols", "nrows", "xllcorner", "yllcorner", "xllcenter", "yllcenter",
		"cellsize", "dx", "dy", "nodata_value":
		return true
	}
	return false
}

func (h *header) set(key, value string) error {
	h.seen[key] = true
	if key == "ncols" || key == "nrows" {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrDataIntegrity, key, err)
		}
		if key == "ncols" {
			h.ncols = n
		} else {
			h.nrows = n
		}
		return nil
	}

	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrDataIntegrity, key, err)
	}
	switch key {
	case "xllcorner":
		h.xll = v
	case "yllcorner":
		h.yll = v
	case "xllcenter":
		h.xll, h.centerRef = v, true
	case "yllcenter":
		h.yll, h.centerRef = v, true
	case "cellsize":
		h.dx, h.dy = v, v
	case "dx":
		h.dx = v
	case "dy":
		h.dy = v
	case "nodata_value":
		h.nodata = domain.Some(v)
	}
	return nil
}

func (h *header) validate() error {
	var missing []string
	for _, k := range []string{"ncols", "nrows"} {
		if !h.seen[k] {
			missing = append(missing, k)
		}
	}
	if !h.seen["xllcorner"] && !h.seen["xllcenter"] {
		missing = append(missing, "xllcorner")
	}
	if !h.seen["yllcorner"] && !h.seen["yllcenter"] {
		missing = append(missing, "yllcorner")
	}
	if !h.seen["cellsize"] && (!h.seen["dx"] || !h.seen["dy"]) {
		missing = append(missing, "cellsize")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: grid header missing %s", domain.ErrDataIntegrity, strings.Join(missing, ", "))
	}
	if h.ncols <= 0 || h.nrows <= 0 || h.dx <= 0 || h.dy <= 0 || math.IsNaN(h.dx) || math.IsNaN(h.dy) {
		return fmt.Errorf("%w: invalid grid geometry %dx%d cell %gx%g", domain.ErrDataIntegrity, h.ncols, h.nrows, h.dx, h.dy)
	}
	return nil
}

// decompress wraps r according to the file extension.
func decompress(path string, r io.Reader) (io.Reader, func(), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, func() { zr.Close() }, nil
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return zr, zr.Close, nil
	default:
		return r, func() {}, nil
	}
}

// readSidecar loads <base>.prj next to path. A missing sidecar yields nil.
func readSidecar(path string) (*domain.CRS, error) {
	b, err := os.ReadFile(SidecarPath(path))
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

// BaseName strips the directory, any compression suffix and the grid
// extension: raster/wc2.1_30s_tavg_01.asc.gz → wc2.1_30s_tavg_01.
func BaseName(path string) string {
	name := filepath.Base(path)
	for _, ext := range []string{".gz", ".zst", ".asc", ".txt"} {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			name = name[:len(name)-len(ext)]
		}
	}
	return name
}

// SidecarPath returns the .prj path belonging to a grid path.
func SidecarPath(path string) string {
	return filepath.Join(filepath.Dir(path), BaseName(path)+".prj")
}
