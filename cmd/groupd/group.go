package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/streamgroup/internal/groupd"
	"github.com/kbukum/streamgroup/logger"
)

func newGroupCmd(flags *configFlags) *cobra.Command {
	var keyPath string
	cmd := &cobra.Command{
		Use:   "group [file]",
		Short: "Group NDJSON from a file or standard input",
		Long: `Group records read from file, or standard input when file is omitted or
"-", and write one {"key","items"} object per line to standard output.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			cfg.ApplyDefaults()
			if err := cfg.Validate(); err != nil {
				return err
			}
			if keyPath == "" {
				keyPath = cfg.Grouping.DefaultKeyPath
			}
			path, err := groupd.ParseKeyPath(keyPath)
			if err != nil {
				return fmt.Errorf("--key: %w", err)
			}

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			log := logger.NewWithWriter(&cfg.Logging, cmd.ErrOrStderr(), groupd.ServiceName).WithComponent("group")
			n, err := groupd.GroupNDJSON(cmd.Context(), in, cmd.OutOrStdout(), path, cfg.Grouping, log)
			log.Debug("grouping finished", logger.Fields("groups", n))
			return err
		},
	}
	cmd.Flags().StringVarP(&keyPath, "key", "k", "", "dot path of the grouping key (default: grouping.default_key_path)")
	return cmd
}
