package summary

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/couchcryptid/municipio-temperatura/internal/adapter/report"
	"github.com/couchcryptid/municipio-temperatura/internal/domain"
)

// Output file names inside the summary directory.
const (
	HottestFile  = "top_10_cidades_mais_quentes.csv"
	ColdestFile  = "top_10_cidades_mais_frias.csv"
	ByStateFile  = "media_temperatura_por_estado.csv"
	BandsFile    = "distribuicao_faixa_temperatura.csv"
	OutliersFile = "outliers_temperatura.csv"
)

// WriteAll writes the five summary tables into dir, creating it if needed.
// It returns the paths written.
func WriteAll(dir string, rep *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create summary dir: %w", err)
	}

	writers := []struct {
		name  string
		write func(io.Writer) error
	}{
		{HottestFile, func(w io.Writer) error { return report.Write(w, records(rep.Hottest)) }},
		{ColdestFile, func(w io.Writer) error { return report.Write(w, records(rep.Coldest)) }},
		{ByStateFile, func(w io.Writer) error { return writeByState(w, rep.ByState) }},
		{BandsFile, func(w io.Writer) error { return writeBands(w, rep.Bands) }},
		{OutliersFile, func(w io.Writer) error { return report.Write(w, records(rep.Outliers)) }},
	}

	paths := make([]string, 0, len(writers))
	for _, wr := range writers {
		path := filepath.Join(dir, wr.name)
		if err := writeFile(path, wr.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func records(entries []Entry) []domain.OutputRecord {
	out := make([]domain.OutputRecord, len(entries))
	for i, e := range entries {
		out[i] = domain.OutputRecord{Code: e.Code, Name: e.Name, State: e.State, Temperature: domain.Some(e.Temperature)}
	}
	return out
}

func writeByState(w io.Writer, states []StateMean) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"estado", "temp_media_anual"}); err != nil {
		return err
	}
	for _, s := range states {
		if err := cw.Write([]string{s.State, formatFloat(s.Mean)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeBands(w io.Writer, bands []BandCount) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"faixa", "quantidade"}); err != nil {
		return err
	}
	for _, b := range bands {
		if err := cw.Write([]string{b.Label, strconv.Itoa(b.Count)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// Print renders the report as aligned text tables.
func Print(out io.Writer, rep *Report) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	d := rep.Describe

	fmt.Fprintln(tw, "Estatísticas gerais (Brasil)")
	fmt.Fprintf(tw, "count\t%d\n", d.Count)
	for _, row := range []struct {
		name string
		v    float64
	}{
		{"mean", d.Mean}, {"std", d.Std}, {"min", d.Min},
		{"25%", d.Q25}, {"50%", d.Q50}, {"75%", d.Q75}, {"max", d.Max},
	} {
		fmt.Fprintf(tw, "%s\t%.6f\n", row.name, row.v)
	}
	if rep.Dropped > 0 {
		fmt.Fprintf(tw, "sem temperatura\t%d\n", rep.Dropped)
	}

	printEntries(tw, "Top 10 cidades mais quentes", rep.Hottest)
	printEntries(tw, "Top 10 cidades mais frias", rep.Coldest)

	fmt.Fprintln(tw, "\nTemperatura média por estado")
	fmt.Fprintln(tw, "estado\ttemp_media_anual")
	for _, s := range rep.ByState {
		fmt.Fprintf(tw, "%s\t%.4f\n", s.State, s.Mean)
	}

	fmt.Fprintln(tw, "\nDistribuição de municípios por faixa de temperatura")
	fmt.Fprintln(tw, "faixa\tquantidade")
	for _, b := range rep.Bands {
		fmt.Fprintf(tw, "%s\t%d\n", b.Label, b.Count)
	}

	printEntries(tw, fmt.Sprintf("Outliers de temperatura (IQR) fora de [%.4f, %.4f]", rep.OutlierLow, rep.OutlierHigh), rep.Outliers)
	return tw.Flush()
}

func printEntries(w io.Writer, title string, entries []Entry) {
	fmt.Fprintf(w, "\n%s\n", title)
	fmt.Fprintln(w, "municipio\testado\ttemp_media_anual")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%.4f\n", e.Name, e.State, e.Temperature)
	}
}
