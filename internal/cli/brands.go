package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	skerrors "github.com/matzehuels/storekit/pkg/errors"
	"github.com/matzehuels/storekit/pkg/resource"
	"github.com/matzehuels/storekit/pkg/storefront"
)

// brandsCommand creates the brands command with its subcommands.
func (c *CLI) brandsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brands",
		Short: "Browse the brand catalog",
		Long: `Browse the brand catalog.

The full list is fetched page by page and cached for the rest of the
command. Brands missing from the list are looked up individually.`,
	}

	cmd.AddCommand(c.brandsListCommand())
	cmd.AddCommand(c.brandsGetCommand())
	cmd.AddCommand(c.brandsNameCommand())
	cmd.AddCommand(c.brandsBrowseCommand())

	return cmd
}

func (c *CLI) brandsListCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every brand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStorefront(ctx, func(sf *storefront.Storefront) error {
				brands, err := loadBrands(ctx, sf)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(brands)
				}
				printTable(brands,
					column{"ID", "id"},
					column{"Name", "name"},
					column{"Products", "brand_products"})
				printDetail("%d brands", len(brands))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the brands as JSON")
	return cmd
}

func (c *CLI) brandsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print one brand as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStorefront(ctx, func(sf *storefront.Storefront) error {
				brand, err := ensureBrand(ctx, sf, args[0])
				if err != nil {
					return err
				}
				return printJSON(brand)
			})
		},
	}
}

func (c *CLI) brandsNameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "name <id>",
		Short: "Print a brand's display name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStorefront(ctx, func(sf *storefront.Storefront) error {
				if _, err := ensureBrand(ctx, sf, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(stdout, sf.Brands.NameOf(args[0]))
				return nil
			})
		},
	}
}

func (c *CLI) brandsBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse brands interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStorefront(ctx, func(sf *storefront.Storefront) error {
				p := tea.NewProgram(NewBrandListModel(ctx, sf.Brands), tea.WithContext(ctx), tea.WithAltScreen())
				final, err := p.Run()
				if err != nil {
					return fmt.Errorf("brand browser: %w", err)
				}
				if m, ok := final.(BrandListModel); ok && m.Err != nil {
					return m.Err
				}
				return nil
			})
		},
	}
}

// loadBrands loads the full brand list with a spinner that counts entries
// as pages arrive. A partial list is returned with a warning.
func loadBrands(ctx context.Context, sf *storefront.Storefront) ([]resource.Entry, error) {
	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinner(ctx, "Loading brands")
	spinner.Start()
	unsubscribe := sf.Brands.Cache().Subscribe(func(s resource.Snapshot) {
		spinner.SetMessage("Loading brands (%d)", len(s.Items))
	})
	sf.Brands.Ensure(ctx)
	unsubscribe()
	spinner.Stop()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	brands := sf.Brands.List()
	if err := sf.Brands.Err(); err != nil {
		if len(brands) == 0 {
			return nil, err
		}
		printWarning("Brand list is incomplete: %s", skerrors.UserMessage(err))
	}
	prog.done(fmt.Sprintf("Loaded %d brands", len(brands)))
	return brands, nil
}

// ensureBrand makes sure brand id is cached and returns it.
func ensureBrand(ctx context.Context, sf *storefront.Storefront, id string) (resource.Entry, error) {
	if err := skerrors.ValidateID(id); err != nil {
		return nil, err
	}
	sf.Brands.EnsureBrand(ctx, id)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	brand := sf.Brands.ByID(id)
	if brand == nil {
		return nil, skerrors.New(skerrors.ErrCodeNotFound, "brand %s not found", id)
	}
	return brand, nil
}
