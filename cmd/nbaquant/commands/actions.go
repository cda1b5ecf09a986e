package commands

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/fortuna/nbaquant/internal/pbp"
)

func init() {
	rootCmd.AddCommand(actionsCmd)
}

var actionsCmd = &cobra.Command{
	Use:   "actions [type]",
	Short: "Prints the play-by-play action taxonomy.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		types := pbp.ActionTypes()
		if len(args) == 1 {
			a, err := pbp.ParseActionType(args[0])
			if err != nil {
				return err
			}
			types = []pbp.ActionType{a}
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Action", "Subtypes"})

		for _, a := range types {
			t.AppendRow(table.Row{a, strings.Join(pbp.SubTypes(a), "\n")})
			t.AppendSeparator()
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
