package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	skerrors "github.com/matzehuels/storekit/pkg/errors"
	"github.com/matzehuels/storekit/pkg/storefront"
)

// guestCommand prints the guest id, requesting one when none is stored.
func (c *CLI) guestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "guest",
		Short: "Print the guest id used for anonymous carts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStorefront(cmd.Context(), func(sf *storefront.Storefront) error {
				id := sf.Session.GuestID()
				if id == 0 {
					return skerrors.New(skerrors.ErrCodeNetwork, "the API did not issue a guest id")
				}
				fmt.Fprintln(stdout, strconv.FormatInt(id, 10))
				return nil
			})
		},
	}
}

// authCommand creates the auth command with login, logout, and whoami.
func (c *CLI) authCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the customer login",
		Long: `Manage the customer login.

Storekit does not sign in with a password. Obtain a bearer token from the
storefront and store it with 'storekit auth login <token>'.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "login <token>",
		Short: "Store a customer token after checking it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStorefront(ctx, func(sf *storefront.Storefront) error {
				if err := sf.Session.SetToken(ctx, args[0]); err != nil {
					return err
				}
				user, err := sf.Session.LoadProfile(ctx, sf.API)
				if err != nil {
					return err
				}
				printSuccess("Logged in as %s", displayName(user))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStorefront(cmd.Context(), func(sf *storefront.Storefront) error {
				if err := sf.Session.Logout(cmd.Context()); err != nil {
					return err
				}
				printSuccess("Logged out")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStorefront(cmd.Context(), func(sf *storefront.Storefront) error {
				if sf.Session.LoggedIn() {
					user := sf.Session.User()
					printKeyValue("Customer", displayName(user))
					if email, ok := user["email"].(string); ok && email != "" {
						printKeyValue("Email", email)
					}
				} else {
					printKeyValue("Customer", StyleDim.Render("not logged in"))
				}
				printKeyValue("Guest ID", strconv.FormatInt(sf.Session.GuestID(), 10))
				printKeyValue("Locale", sf.Session.Locale()+" ("+sf.Session.Dir()+")")
				printKeyValue("API", sf.API.BaseURL())
				return nil
			})
		},
	})

	return cmd
}

// localeCommand shows or switches the storefront locale.
func (c *CLI) localeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "locale [ar|en]",
		Short:     "Show or set the storefront locale",
		ValidArgs: []string{"ar", "en"},
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStorefront(cmd.Context(), func(sf *storefront.Storefront) error {
				if len(args) == 1 {
					if err := sf.Session.SetLocale(cmd.Context(), args[0]); err != nil {
						return err
					}
				}
				fmt.Fprintf(stdout, "%s %s\n", sf.Session.Locale(), StyleDim.Render(sf.Session.Dir()))
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Switch between Arabic and English",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStorefront(cmd.Context(), func(sf *storefront.Storefront) error {
				locale, err := sf.Session.Toggle(cmd.Context())
				if err != nil {
					return err
				}
				printSuccess("Locale is now %s (%s)", locale, sf.Session.Dir())
				return nil
			})
		},
	})

	return cmd
}

// displayName joins the profile's first and last name, falling back to
// the email.
func displayName(user map[string]any) string {
	first, _ := user["f_name"].(string)
	last, _ := user["l_name"].(string)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "" || last != "":
		return first + last
	}
	if email, ok := user["email"].(string); ok {
		return email
	}
	return "customer"
}
