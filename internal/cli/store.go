package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/matzehuels/storekit/pkg/storage"
)

// storedKeys lists every key storekit persists.
var storedKeys = []string{
	storage.KeyAuthToken,
	storage.KeyGuestID,
	storage.KeyLocale,
	storage.KeyCompareItems,
}

// storeCommand creates the store management command.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage the persisted client state",
		Long: `Manage the persisted client state: the login token, guest id, locale,
and compare list. The backend is chosen by store.backend in the config
file or --store.`,
	}

	cmd.AddCommand(c.storeClearCommand())
	cmd.AddCommand(c.storePathCommand())

	return cmd
}

// storeClearCommand creates the "store clear" subcommand.
func (c *CLI) storeClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget all persisted state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := storage.Open(cmd.Context(), cfg.StorageConfig())
			if err != nil {
				return err
			}
			defer store.Close()

			if fs, ok := store.(*storage.FileStore); ok {
				count, err := fs.Clear()
				if err != nil {
					return err
				}
				printSuccess("Cleared %d stored entries", count)
				printDetail("Directory: %s", fs.Dir())
				return nil
			}
			for _, key := range storedKeys {
				if err := store.Delete(cmd.Context(), key); err != nil {
					return fmt.Errorf("delete %s: %w", key, err)
				}
			}
			printSuccess("Cleared stored state from the %s backend", cfg.Store.Backend)
			return nil
		},
	}
}

// storePathCommand creates the "store path" subcommand.
func (c *CLI) storePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where state is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			switch cfg.Store.Backend {
			case storage.BackendMemory:
				printInfo("State is kept in memory and discarded on exit")
			case storage.BackendRedis:
				fmt.Fprintf(stdout, "redis://%s/%d\n", cfg.Store.RedisAddr, cfg.Store.RedisDB)
			case storage.BackendMongo:
				fmt.Fprintln(stdout, redact(cfg.Store.MongoURI))
			case storage.BackendPostgres:
				table := cfg.Store.PostgresTable
				if table == "" {
					table = storage.DefaultPostgresTable
				}
				fmt.Fprintf(stdout, "%s (table %s)\n", redact(cfg.Store.PostgresDSN), table)
			default:
				dir := cfg.Store.Dir
				if dir == "" {
					if dir, err = storage.DefaultDir(); err != nil {
						return fmt.Errorf("get store dir: %w", err)
					}
				}
				fmt.Fprintln(stdout, dir)
			}
			return nil
		},
	}
}

// redact hides the password in a connection URL. Keyword/value DSNs are
// not printed at all.
func redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return "(connection string)"
	}
	return u.Redacted()
}
