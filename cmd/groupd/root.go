package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/streamgroup/config"
	"github.com/kbukum/streamgroup/internal/groupd"
)

// configFlags are shared by every command that reads groupd configuration.
type configFlags struct {
	configFile string
	envFile    string
}

func (f *configFlags) load() (*groupd.Config, error) {
	var cfg groupd.Config
	err := config.LoadConfig(groupd.ServiceName, &cfg,
		config.WithConfigFile(f.configFile),
		config.WithEnvFile(f.envFile),
		config.WithEnvPrefix("GROUPD"),
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newRootCmd() *cobra.Command {
	flags := &configFlags{}
	root := &cobra.Command{
		Use:   "groupd",
		Short: "Group consecutive NDJSON records by key",
		Long: `groupd reads newline-delimited JSON records and groups every run of
consecutive records whose value at a key path is equal. Runs are emitted as
soon as the next record's key differs or the input ends.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file (default: search ./cmd/groupd, ./config, .)")
	root.PersistentFlags().StringVar(&flags.envFile, "env", "", ".env file (default: search standard locations)")

	root.AddCommand(newServeCmd(flags), newGroupCmd(flags), newVersionCmd())
	return root
}
