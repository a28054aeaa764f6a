package main

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"pkt.systems/objlookup/internal/scenario"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tests and their positional parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Test", "Name", "Description", "Parameters")
			for _, def := range scenario.All() {
				if err := table.Append(strconv.Itoa(def.ID), def.Name, def.Title, formatParams(def.Params)); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}

func formatParams(params []scenario.Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p.Name+"="+humanize.Comma(int64(p.Default)))
	}
	return strings.Join(parts, " ")
}
