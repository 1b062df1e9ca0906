package main

import (
	"os"

	"github.com/couchcryptid/municipio-temperatura/internal/adapter/report"
	"github.com/couchcryptid/municipio-temperatura/internal/summary"
)

// StatsCmd implements the 'stats' command.
type StatsCmd struct {
	CSV    string `name:"csv" help:"Input table (default from config)"`
	Outdir string `help:"Directory for the report CSVs (default from config)"`
}

// Run reads the table, prints the summary, and writes the report files.
func (c *StatsCmd) Run(g *Global) error {
	in := g.Config.OutputCSV
	if c.CSV != "" {
		in = c.CSV
	}
	outdir := g.Config.StatsOutDir
	if c.Outdir != "" {
		outdir = c.Outdir
	}

	records, err := report.ReadFile(in)
	if err != nil {
		return err
	}
	rep, err := summary.Compute(records)
	if err != nil {
		return err
	}
	if err := summary.Print(os.Stdout, rep); err != nil {
		return err
	}
	paths, err := summary.WriteAll(outdir, rep)
	if err != nil {
		return err
	}
	g.Logger.Info("summary written", "dir", outdir, "files", len(paths), "municipalities", rep.Describe.Count, "dropped", rep.Dropped)
	return nil
}
