package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Is-Prog22/fastandtrust/internal/shopclient"
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Manage the locally persisted shopping cart",
}

var cartAddCmd = &cobra.Command{
	Use:   "add <productId>",
	Short: "Add a product to the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[0])
		}

		c, _, err := newClient()
		if err != nil {
			return err
		}

		var cache shopclient.Cache
		if err := cache.Refresh(cmd.Context(), c); err != nil {
			return err
		}

		for _, p := range cache.Products() {
			if p.ID == id {
				cart, err := openCart()
				if err != nil {
					return err
				}
				if err := cart.Add(p); err != nil {
					return err
				}
				fmt.Printf("added %q, cart now holds %d item(s)\n", p.Name, cart.TotalItems())
				return nil
			}
		}
		return fmt.Errorf("product %d not in catalog", id)
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "rm <productId>",
	Short: "Remove a product from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[0])
		}

		cart, err := openCart()
		if err != nil {
			return err
		}
		return cart.Remove(id)
	},
}

var cartQtyCmd = &cobra.Command{
	Use:   "qty <productId> <quantity>",
	Short: "Set the quantity of a cart line",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[0])
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}

		cart, err := openCart()
		if err != nil {
			return err
		}
		return cart.SetQuantity(id, qty)
	},
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cart, err := openCart()
		if err != nil {
			return err
		}
		return cart.Clear()
	},
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the cart contents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cart, err := openCart()
		if err != nil {
			return err
		}

		items := cart.Items()
		if len(items) == 0 {
			fmt.Println("cart is empty")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tPRICE\tQTY")
		for _, it := range items {
			fmt.Fprintf(tw, "%d\t%s\t%.2f\t%d\n", it.ID, it.Name, it.Price, it.Quantity)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		fmt.Printf("total: %d item(s), %.2f\n", cart.TotalItems(), cart.TotalPrice())
		return nil
	},
}

func init() {
	cartCmd.AddCommand(cartAddCmd, cartRemoveCmd, cartQtyCmd, cartClearCmd, cartShowCmd)
	rootCmd.AddCommand(cartCmd)
}
