package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/storekit/pkg/config"
	skerrors "github.com/matzehuels/storekit/pkg/errors"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath
			if path == "" {
				var err error
				if path, err = config.Path(); err != nil {
					return fmt.Errorf("get config path: %w", err)
				}
			}
			fmt.Fprintln(stdout, path)
			return nil
		},
	})

	cmd.AddCommand(c.configShowCommand())

	return cmd
}

func (c *CLI) configShowCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the effective configuration: built-in defaults, then the config
file, then the --env-file dotenv file, then STOREKIT_* environment
variables, then command-line flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			switch format {
			case "toml":
				return cfg.Encode(stdout)
			case "yaml":
				return cfg.EncodeYAML(stdout)
			default:
				return skerrors.New(skerrors.ErrCodeInvalidInput, "unknown format %q (want toml or yaml)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "toml", "output format: toml or yaml")
	return cmd
}
