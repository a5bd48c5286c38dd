package main

import (
	"fmt"
	"os"

	"github.com/gadget1999/gobox/internal/config"
	"github.com/spf13/cobra"
)

const configPathEnv = config.EnvPrefix + "_CONFIG_PATH"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the gobox configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the resolved config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := resolveConfigPath(cmd)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	})
	return cmd
}

// resolveConfigPath picks the --config flag, then GOBOX_CONFIG_PATH, then the
// default path. explicit is false only for the default, which may be absent.
func resolveConfigPath(cmd *cobra.Command) (path string, explicit bool) {
	if f := cmd.Flag("config"); f != nil && f.Changed {
		return f.Value.String(), true
	}
	if env := os.Getenv(configPathEnv); env != "" {
		return env, true
	}
	return config.DefaultConfigPath, false
}
