package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/fortuna/nbaquant/internal/export"
)

var (
	exportIn      string
	exportOut     string
	exportPreview bool
)

func init() {
	flags := exportCmd.Flags()
	flags.StringVar(&exportIn, "in", "", "saved stats response (default from config, file.json)")
	flags.StringVar(&exportOut, "out", "", "spreadsheet to write (default from config, giannis_rebounds.xlsx)")
	flags.BoolVar(&exportPreview, "preview", false, "print the exported rows as a table")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [--in file.json] [--out giannis_rebounds.xlsx] [--preview]",
	Short: "Exports per-game rebounds from a saved stats response.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, out := exportIn, exportOut
		if in == "" {
			in = cfg.Files.Raw
		}
		if out == "" {
			out = cfg.Files.Spreadsheet
		}

		outs, _, cl, err := sinks(cmd.Context(), out)
		if err != nil {
			return err
		}
		defer cl.Close()

		rows, err := export.Export(cmd.Context(), in, outs...)
		if err != nil {
			return err
		}

		if exportPreview {
			renderRows(cmd.OutOrStdout(), rows)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(rows), out)
		return nil
	},
}

func renderRows(w io.Writer, rows []export.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	header := make(table.Row, len(export.Header))
	for i, h := range export.Header {
		header[i] = h
	}
	t.AppendHeader(header)

	for _, r := range rows {
		t.AppendRow(table.Row{r.GameID, r.Rebounds})
	}

	t.AppendFooter(table.Row{"rows", len(rows)})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
