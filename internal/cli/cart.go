package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/storekit/pkg/cart"
	skerrors "github.com/matzehuels/storekit/pkg/errors"
	"github.com/matzehuels/storekit/pkg/resource"
	"github.com/matzehuels/storekit/pkg/storefront"
)

var cartColumns = []column{
	{"Key", "id"},
	{"Product", "product_id"},
	{"Name", "name"},
	{"Variant", "variant"},
	{"Qty", "quantity"},
	{"Price", "price"},
}

// cartCommand creates the cart command with its subcommands.
func (c *CLI) cartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the shopping cart",
		Long: `Manage the shopping cart of the current guest or customer.

Products are addressed by product id; --variant picks one row when the
same product is in the cart more than once.`,
	}

	cmd.AddCommand(c.cartListCommand())
	cmd.AddCommand(c.cartAddCommand())
	cmd.AddCommand(c.cartUpdateCommand())
	cmd.AddCommand(c.cartRemoveCommand())
	cmd.AddCommand(c.cartClearCommand())

	return cmd
}

func (c *CLI) cartListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStorefront(cmd.Context(), func(sf *storefront.Storefront) error {
				rows, err := sf.Cart.List(cmd.Context(), false)
				if err != nil {
					return err
				}
				printCart(rows)
				return nil
			})
		},
	}
}

func (c *CLI) cartAddCommand() *cobra.Command {
	var req cart.AddRequest
	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.ProductID = args[0]
			return c.withStorefront(cmd.Context(), func(sf *storefront.Storefront) error {
				rows, err := sf.Cart.Add(cmd.Context(), req)
				if err != nil {
					return err
				}
				printSuccess("Added product %s", args[0])
				printCart(rows)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.IntVarP(&req.Quantity, "qty", "q", 1, "quantity")
	f.StringVar(&req.Variant, "variant", "", "variant name")
	f.StringVar(&req.Color, "color", "", "color code")
	f.StringVar(&req.Size, "size", "", "size")
	f.StringVar(&req.SKU, "sku", "", "variant SKU")
	f.Float64Var(&req.Price, "price", 0, "unit price")
	return cmd
}

func (c *CLI) cartUpdateCommand() *cobra.Command {
	var variant string
	cmd := &cobra.Command{
		Use:   "update <product-id> <qty>",
		Short: "Set the quantity of a product, adding it if needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return skerrors.New(skerrors.ErrCodeInvalidQuantity, "quantity %q is not a number", args[1])
			}
			ctx := cmd.Context()
			return c.withStorefront(ctx, func(sf *storefront.Storefront) error {
				if _, err := sf.Cart.List(ctx, false); err != nil {
					return err
				}
				rows, err := sf.Cart.UpdateByProduct(ctx, cartProduct(args[0], variant), qty)
				if err != nil {
					return err
				}
				printSuccess("Product %s now has quantity %d", args[0], qty)
				printCart(rows)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&variant, "variant", "", "variant name")
	return cmd
}

func (c *CLI) cartRemoveCommand() *cobra.Command {
	var variant string
	cmd := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStorefront(ctx, func(sf *storefront.Storefront) error {
				if _, err := sf.Cart.List(ctx, false); err != nil {
					return err
				}
				product := cartProduct(args[0], variant)
				if _, ok := sf.Cart.KeyFor(product); !ok {
					printInfo("Product %s is not in the cart", args[0])
					return nil
				}
				rows, err := sf.Cart.RemoveByProduct(ctx, product)
				if err != nil {
					return err
				}
				printSuccess("Removed product %s", args[0])
				printCart(rows)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&variant, "variant", "", "variant name")
	return cmd
}

func (c *CLI) cartClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStorefront(cmd.Context(), func(sf *storefront.Storefront) error {
				if _, err := sf.Cart.ClearAll(cmd.Context()); err != nil {
					return err
				}
				printSuccess("Cart cleared")
				return nil
			})
		},
	}
}

func cartProduct(id, variant string) resource.Entry {
	e := resource.Entry{"id": id}
	if variant != "" {
		e["variant"] = variant
	}
	return e
}

func printCart(rows []resource.Entry) {
	if len(rows) == 0 {
		printInfo("The cart is empty")
		return
	}
	printTable(rows, cartColumns...)
	printDetail("%d rows", len(rows))
}
