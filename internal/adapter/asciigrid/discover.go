package asciigrid

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/municipio-temperatura/internal/domain"
)

// monthRe finds the WorldClim month tag, e.g. wc2.1_30s_tavg_07 → 07.
var monthRe = regexp.MustCompile(`tavg_(\d{2})`)

// suffixMonthRe finds a trailing _MM before the extensions, e.g. temp_07.asc.
var suffixMonthRe = regexp.MustCompile(`_(\d{2})$`)

// gridSuffixes are the file endings Discover accepts. Sidecars such as .prj
// or the .aux.xml written by GDAL never match.
var gridSuffixes = []string{".asc", ".asc.gz", ".asc.zst", ".txt", ".txt.gz", ".txt.zst"}

// IsGrid reports whether path names an ESRI ASCII grid, compressed or not.
func IsGrid(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, suffix := range gridSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Discover lists the grids matching pattern in lexical order. Matches that
// are not grids are ignored.
func Discover(pattern string) ([]string, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: raster pattern %q: %w", domain.ErrConfig, pattern, err)
	}
	var grids []string
	for _, p := range paths {
		if IsGrid(p) {
			grids = append(grids, p)
		}
	}
	if len(grids) == 0 {
		return nil, fmt.Errorf("%w: no ASCII grid (%s) matches %q", domain.ErrConfig, strings.Join(gridSuffixes, ", "), pattern)
	}
	sort.Strings(grids)
	return grids, nil
}

// MonthOf extracts the month encoded in a grid file name. ok is false when the
// name carries none.
func MonthOf(path string) (int, bool) {
	name := BaseName(path)
	m := monthRe.FindStringSubmatch(name)
	if m == nil {
		m = suffixMonthRe.FindStringSubmatch(name)
	}
	if m == nil {
		return 0, false
	}
	month, err := strconv.Atoi(m[1])
	if err != nil || month < 1 || month > 12 {
		return 0, false
	}
	return month, true
}

// PickMonth selects the grid for one month: first by the tavg_MM tag, then
// by a _MM suffix, finally by position in the sorted list. Two grids matching
// the same month is a configuration error.
func PickMonth(paths []string, month int) (domain.RasterSource, error) {
	if month < 1 || month > 12 {
		return domain.RasterSource{}, fmt.Errorf("%w: month %d outside 1-12", domain.ErrConfig, month)
	}
	tag := fmt.Sprintf("tavg_%02d", month)
	suffix := fmt.Sprintf("_%02d", month)
	for _, match := range []func(string) bool{
		func(name string) bool { return strings.Contains(name, tag) },
		func(name string) bool { return strings.HasSuffix(name, suffix) },
	} {
		var found []string
		for _, p := range paths {
			if match(BaseName(p)) {
				found = append(found, p)
			}
		}
		switch len(found) {
		case 0:
			continue
		case 1:
			return domain.RasterSource{Month: month, Path: found[0]}, nil
		default:
			return domain.RasterSource{}, duplicateMonth(month, found)
		}
	}
	if month <= len(paths) {
		return domain.RasterSource{Month: month, Path: paths[month-1]}, nil
	}
	return domain.RasterSource{}, fmt.Errorf("%w: no raster for month %02d", domain.ErrConfig, month)
}

func duplicateMonth(month int, paths []string) error {
	return fmt.Errorf("%w: month %02d matches several grids: %s", domain.ErrConfig, month, strings.Join(paths, ", "))
}

// Select returns the grids to process. With a month, exactly that month's
// grid; otherwise every grid, each labelled with the month in its name or,
// failing that, its position. Each month may appear only once.
func Select(paths []string, month domain.Option[int]) ([]domain.RasterSource, error) {
	if m, ok := month.Get(); ok {
		src, err := PickMonth(paths, m)
		if err != nil {
			return nil, err
		}
		return []domain.RasterSource{src}, nil
	}
	sources := make([]domain.RasterSource, len(paths))
	seen := make(map[int]string, len(paths))
	for i, p := range paths {
		m, ok := MonthOf(p)
		if !ok {
			m = i + 1
		}
		if prev, dup := seen[m]; dup {
			return nil, duplicateMonth(m, []string{prev, p})
		}
		seen[m] = p
		sources[i] = domain.RasterSource{Month: m, Path: p}
	}
	return sources, nil
}
