package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/streamgroup/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			v := version.Get()
			fmt.Fprintf(cmd.OutOrStdout(), "groupd %s\n", version.Short())
			fmt.Fprintf(cmd.OutOrStdout(), "  commit:  %s\n", v.GitCommit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:   %s\n", v.BuildTime)
			fmt.Fprintf(cmd.OutOrStdout(), "  go:      %s\n", v.GoVersion)
		},
	}
}
