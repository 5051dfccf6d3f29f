package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/musher-dev/clawdash/internal/config"
	clierrors "github.com/musher-dev/clawdash/internal/errors"
	"github.com/musher-dev/clawdash/internal/output"
)

// configEntry is one setting in the JSON output of config list and get.
type configEntry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View and modify clawdash configuration settings.`,
	}

	cmd.AddCommand(newConfigListCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		Long: `Display every supported setting with its effective value, after environment
variables (CLAWDASH_*) and the config file are applied over the defaults.`,
		Example: `  clawdash config list
  clawdash config list --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			cfg := config.Load()

			keys := config.Keys()

			entries := make([]configEntry, 0, len(keys))
			for _, key := range keys {
				entries = append(entries, configEntry{Key: key, Value: cfg.Get(key)})
			}

			return out.Emit(entries, func() {
				fields := make([]output.Field, 0, len(entries))
				for _, e := range entries {
					fields = append(fields, output.Field{Label: e.Key, Value: fmt.Sprint(e.Value)})
				}

				out.KeyValues(fields...)

				if file := cfg.File(); file != "" {
					out.Println()
					out.Muted("config file: %s", file)
				}
			})
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long:  `Retrieve and display the effective value of a single configuration key.`,
		Example: `  clawdash config get gateway.bin
  clawdash config get poll.jobs --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			key := args[0]

			if !config.IsKnown(key) {
				return clierrors.UnknownConfigKey(key)
			}

			value := config.Load().Get(key)

			return out.Emit(configEntry{Key: key, Value: value}, func() {
				out.Print("%s = %v\n", key, value)
			})
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  `Set a configuration key to the given value. The value is persisted to the config file.`,
		Example: `  clawdash config set gateway.bin /opt/clawdbot/bin/clawdbot
  clawdash config set poll.agents 0`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			key, value := args[0], args[1]

			if !config.IsKnown(key) {
				return clierrors.UnknownConfigKey(key)
			}

			cfg := config.Load()
			if err := cfg.Set(key, value); err != nil {
				return clierrors.ConfigFailed("save config", err)
			}

			out.Success("Set %s = %s", key, value)

			return nil
		},
	}
}
