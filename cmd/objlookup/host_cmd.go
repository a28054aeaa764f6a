package main

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"pkt.systems/pslog"

	"pkt.systems/objlookup/internal/hostinfo"
	"pkt.systems/objlookup/internal/svcfields"
)

func newHostCommand(v *viper.Viper, baseLogger pslog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "host",
		Short: "Show the host the tests would run on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := svcfields.WithSubsystem(withLogLevel(v, baseLogger), "cli.host")
			snap, err := hostinfo.Collect(cmd.Context())
			if err != nil {
				logger.Warn("host.snapshot.partial", "error", err)
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Field", "Value")
			for _, field := range snap.Fields() {
				if err := table.Append(field[0], field[1]); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}
