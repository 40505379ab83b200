// Package cli implements the storekit command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/storekit/pkg/buildinfo"
	"github.com/matzehuels/storekit/pkg/config"
	"github.com/matzehuels/storekit/pkg/storage"
	"github.com/matzehuels/storekit/pkg/storefront"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "storekit"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	envFile    string
	apiBase    string
	locale     string
	store      string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. At debug level cache loads and
// HTTP round trips are traced too.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	installTrace(c.Logger)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	buildinfo.Resolve()
	root := &cobra.Command{
		Use:          appName,
		Short:        "Storekit drives a storefront API from the terminal",
		Long:         `Storekit is a client for an e-commerce storefront API. It browses the catalog, manages the cart, wishlist, and compare list, and keeps the guest and customer identity between runs.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/storekit/config.toml)")
	flags.StringVar(&c.envFile, "env-file", "", "dotenv file with STOREKIT_* settings")
	flags.StringVar(&c.apiBase, "api-base", "", "storefront API root, e.g. https://shop.example.com/api")
	flags.StringVar(&c.locale, "locale", "", "storefront locale (ar or en); remembered for later runs")
	flags.StringVar(&c.store, "store", "", "state backend: memory, file, redis, mongo, or postgres")

	root.AddCommand(c.brandsCommand())
	root.AddCommand(c.productsCommand())
	root.AddCommand(c.cartCommand())
	root.AddCommand(c.wishlistCommand())
	root.AddCommand(c.compareCommand())
	root.AddCommand(c.guestCommand())
	root.AddCommand(c.authCommand())
	root.AddCommand(c.localeCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.mockCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Storefront Factory
// =============================================================================

// loadConfig reads the config file, dotenv file, and environment, then
// applies the global flags.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.LoadFiles(c.configPath, c.envFile)
	if err != nil {
		return cfg, err
	}
	if c.apiBase != "" {
		cfg.APIBase = c.apiBase
	}
	if c.store != "" {
		cfg.Store.Backend = c.store
	}
	return cfg, cfg.Validate()
}

// open builds a bootstrapped storefront. Callers must Close it.
func (c *CLI) open(ctx context.Context) (*storefront.Storefront, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(ctx, cfg.StorageConfig())
	if err != nil {
		return nil, err
	}
	sf, err := storefront.New(cfg, store, c.Logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := sf.Bootstrap(ctx); err != nil {
		sf.Close()
		return nil, err
	}
	if c.locale != "" && c.locale != sf.Session.Locale() {
		if err := sf.Session.SetLocale(ctx, c.locale); err != nil {
			sf.Close()
			return nil, err
		}
	}
	return sf, nil
}

// withStorefront opens a storefront for the duration of fn.
func (c *CLI) withStorefront(ctx context.Context, fn func(*storefront.Storefront) error) error {
	sf, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer sf.Close()
	return fn(sf)
}
