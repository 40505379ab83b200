package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	skerrors "github.com/matzehuels/storekit/pkg/errors"
	"github.com/matzehuels/storekit/pkg/resource"
	"github.com/matzehuels/storekit/pkg/storefront"
)

// compareCommand creates the compare command. The compare list is kept
// in the configured store, not on the server.
func (c *CLI) compareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Manage the product comparison list",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the compared products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStorefront(cmd.Context(), func(sf *storefront.Storefront) error {
				items := sf.Compare.Items()
				if len(items) == 0 {
					printInfo("Nothing to compare yet")
					printNextStep("Add a product", "storekit compare add <slug>")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, it := range items {
					rows = append(rows, []string{
						string(it.ID), it.Name, it.Brand,
						strconv.FormatFloat(it.Price, 'f', -1, 64),
						strconv.FormatFloat(it.Rating, 'f', 1, 64),
						it.Image,
					})
				}
				printRows([]string{"ID", "Name", "Brand", "Price", "Rating", "Image"}, rows)
				printDetail("%d of %d slots used", len(items), sf.Compare.MaxItems())
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <slug>",
		Short: "Add a product to the comparison",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStorefront(ctx, func(sf *storefront.Storefront) error {
				product, err := productBySlug(ctx, sf, args[0])
				if err != nil {
					return err
				}
				it, err := sf.Compare.Add(ctx, product)
				if err != nil {
					return err
				}
				printSuccess("Comparing %s", it.Name)
				printDetail("%d of %d slots used", sf.Compare.Count(), sf.Compare.MaxItems())
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from the comparison",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStorefront(cmd.Context(), func(sf *storefront.Storefront) error {
				if err := sf.Compare.Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				printSuccess("Removed product %s", args[0])
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the comparison",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStorefront(cmd.Context(), func(sf *storefront.Storefront) error {
				if err := sf.Compare.Clear(cmd.Context()); err != nil {
					return err
				}
				printSuccess("Comparison cleared")
				return nil
			})
		},
	})

	return cmd
}

// productBySlug fetches a product and fills in its brand name from the
// brand cache when the product only carries a brand id.
func productBySlug(ctx context.Context, sf *storefront.Storefront, slug string) (resource.Entry, error) {
	raw, err := sf.Products.Details(ctx, slug)
	if err != nil {
		return nil, err
	}
	var product resource.Entry
	for _, extract := range resource.DefaultItemExtractors("product", "products") {
		if e, ok := extract(raw); ok {
			product = e
			break
		}
	}
	if product == nil {
		return nil, skerrors.New(skerrors.ErrCodeNotFound, "product %s not found", slug)
	}
	if _, ok := product.Field("brand.name"); !ok {
		if bid, ok := product.Field("brand_id"); ok {
			sf.Brands.EnsureBrand(ctx, bid)
			if name := sf.Brands.NameOf(bid); name != "" {
				product["brand"] = map[string]any{"id": bid, "name": name}
			}
		}
	}
	loggerFromContext(ctx).Debug("product loaded", "slug", slug, "id", product.ID(), "brand", product.String("brand.name"))
	return product, nil
}
