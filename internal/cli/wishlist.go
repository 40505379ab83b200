package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/storekit/pkg/storefront"
)

// wishlistCommand creates the wishlist command. Every subcommand requires
// a login.
func (c *CLI) wishlistCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Manage the customer's wishlist (requires login)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the wishlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStorefront(cmd.Context(), func(sf *storefront.Storefront) error {
				rows, err := sf.Wishlist.List(cmd.Context(), false)
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					printInfo("The wishlist is empty")
					return nil
				}
				printTable(rows,
					column{"Product", "product_id"},
					column{"Name", "product.name"},
					column{"Price", "product.unit_price"})
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the wishlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStorefront(cmd.Context(), func(sf *storefront.Storefront) error {
				if _, err := sf.Wishlist.List(cmd.Context(), false); err != nil {
					return err
				}
				if err := sf.Wishlist.Add(cmd.Context(), args[0]); err != nil {
					return err
				}
				printSuccess("Product %s is on the wishlist", args[0])
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from the wishlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStorefront(cmd.Context(), func(sf *storefront.Storefront) error {
				if err := sf.Wishlist.Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				printSuccess("Product %s is off the wishlist", args[0])
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <product-id>",
		Short: "Add a product if absent, remove it if present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStorefront(cmd.Context(), func(sf *storefront.Storefront) error {
				if _, err := sf.Wishlist.List(cmd.Context(), false); err != nil {
					return err
				}
				on, err := sf.Wishlist.Toggle(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if on {
					printSuccess("Product %s is on the wishlist", args[0])
				} else {
					printSuccess("Product %s is off the wishlist", args[0])
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the wishlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStorefront(cmd.Context(), func(sf *storefront.Storefront) error {
				if err := sf.Wishlist.ClearAll(cmd.Context()); err != nil {
					return err
				}
				printSuccess("Wishlist cleared")
				return nil
			})
		},
	})

	return cmd
}
