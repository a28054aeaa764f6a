package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/objlookup/internal/version"
)

func newVersionCommand() *cobra.Command {
	var versionOnly, semverOnly bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the objlookup version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch {
			case versionOnly && semverOnly:
				return errors.New("--version and --semver are mutually exclusive")
			case versionOnly:
				_, err := fmt.Fprintln(out, version.Current())
				return err
			case semverOnly:
				_, err := fmt.Fprintln(out, version.Semver())
				return err
			}
			_, err := fmt.Fprintf(out, "%s %s\n", version.Module(), version.Current())
			return err
		},
	}
	cmd.Flags().BoolVar(&versionOnly, "version", false, "print only the version")
	cmd.Flags().BoolVar(&semverOnly, "semver", false, "print only the semantic version")
	return cmd
}
