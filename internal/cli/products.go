package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/storekit/pkg/catalog"
	skerrors "github.com/matzehuels/storekit/pkg/errors"
	"github.com/matzehuels/storekit/pkg/resource"
	"github.com/matzehuels/storekit/pkg/storefront"
)

var productColumns = []column{
	{"ID", "id"},
	{"Name", "name"},
	{"Slug", "slug"},
	{"Price", "unit_price"},
	{"Stock", "current_stock"},
}

// productsCommand creates the products command with its subcommands.
func (c *CLI) productsCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Query the product catalog",
	}
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print the raw API response")

	// fetch runs one catalog request and prints its result.
	fetch := func(get func(*storefront.Storefront) (json.RawMessage, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return c.withStorefront(cmd.Context(), func(sf *storefront.Storefront) error {
				raw, err := get(sf)
				if err != nil {
					return err
				}
				return printProducts(raw, asJSON)
			})
		}
	}

	kinds := make([]string, 0, len(catalog.ListKinds()))
	for _, k := range catalog.ListKinds() {
		kinds = append(kinds, string(k))
	}
	cmd.AddCommand(&cobra.Command{
		Use:       "list <kind>",
		Short:     "Show a curated product list",
		Long:      "Show a curated product list. Kinds: " + strings.Join(kinds, ", ") + ".",
		ValidArgs: kinds,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetch(func(sf *storefront.Storefront) (json.RawMessage, error) {
				return sf.Products.List(cmd.Context(), catalog.ListKind(args[0]))
			})(cmd, args)
		},
	})

	var limit, offset int
	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search products by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetch(func(sf *storefront.Storefront) (json.RawMessage, error) {
				return sf.Products.Search(cmd.Context(), args[0], limit, offset)
			})(cmd, args)
		},
	}
	search.Flags().IntVar(&limit, "limit", catalog.DefaultSearchLimit, "results per page")
	search.Flags().IntVar(&offset, "offset", catalog.DefaultSearchOffset, "page number, starting at 1")
	cmd.AddCommand(search)

	cmd.AddCommand(&cobra.Command{
		Use:   "details <slug>",
		Short: "Print one product as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStorefront(cmd.Context(), func(sf *storefront.Storefront) error {
				raw, err := sf.Products.Details(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(raw)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "related <product-id>",
		Short: "Show products related to a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetch(func(sf *storefront.Storefront) (json.RawMessage, error) {
				return sf.Products.Related(cmd.Context(), args[0])
			})(cmd, args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "brand <brand-id>",
		Short: "Show the products of a brand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetch(func(sf *storefront.Storefront) (json.RawMessage, error) {
				return sf.Products.ByBrand(cmd.Context(), args[0])
			})(cmd, args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "category <category-id>",
		Short: "Show the products of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetch(func(sf *storefront.Storefront) (json.RawMessage, error) {
				return sf.Products.ByCategory(cmd.Context(), args[0])
			})(cmd, args)
		},
	})

	var filter string
	filterCmd := &cobra.Command{
		Use:     "filter",
		Short:   "Filter products with a JSON body",
		Example: `  storekit products filter --body '{"brand":[3],"sort_by":"latest"}'`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var body map[string]any
			if err := json.Unmarshal([]byte(filter), &body); err != nil {
				return skerrors.Wrap(skerrors.ErrCodeInvalidInput, err, "filter body")
			}
			return fetch(func(sf *storefront.Storefront) (json.RawMessage, error) {
				return sf.Products.Filter(cmd.Context(), body)
			})(cmd, args)
		},
	}
	filterCmd.Flags().StringVar(&filter, "body", "{}", "filter body as JSON")
	cmd.AddCommand(filterCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "categories",
		Short: "Print the category tree as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStorefront(cmd.Context(), func(sf *storefront.Storefront) error {
				raw, err := catalog.Categories(cmd.Context(), sf.API, nil)
				if err != nil {
					return err
				}
				return printJSON(raw)
			})
		},
	})

	return cmd
}

// printProducts prints a product page as a table, or as JSON when asked
// or when the response is not a recognisable list.
func printProducts(raw json.RawMessage, asJSON bool) error {
	if asJSON {
		return printJSON(raw)
	}
	for _, extract := range resource.DefaultListExtractors("products") {
		if page, ok := extract(raw); ok {
			printTable(page.Items, productColumns...)
			if page.Known {
				printDetail("%d of %d products", len(page.Items), page.Total)
			} else {
				printDetail("%d products", len(page.Items))
			}
			return nil
		}
	}
	fmt.Fprintln(stdout, StyleDim.Render("Unrecognised response:"))
	return printJSON(raw)
}
