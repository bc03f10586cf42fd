package commands

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Is-Prog22/fastandtrust/internal/shopclient"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the catalog's products",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient()
		if err != nil {
			return err
		}

		var cache shopclient.Cache
		if err := cache.Refresh(cmd.Context(), c); err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tPRICE\tCATEGORY\tIMAGES")
		for _, p := range cache.Products() {
			fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%d\n", p.ID, p.Name, p.Price, p.CategoryName, len(p.Images))
		}
		return tw.Flush()
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the catalog's categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient()
		if err != nil {
			return err
		}

		cats, err := c.Categories(cmd.Context())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
		for _, cat := range cats {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", cat.ID, cat.Name, cat.Description)
		}
		return tw.Flush()
	},
}

var addCategoryCmd = &cobra.Command{
	Use:   "add-category <name> <description>",
	Short: "Create a category (admin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient()
		if err != nil {
			return err
		}

		cat, err := c.CreateCategory(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("created category %d %q\n", cat.ID, cat.Name)
		return nil
	},
}

var (
	productPrice    string
	productCategory int64
	productImages   []string
)

var addProductCmd = &cobra.Command{
	Use:   "add-product <name> <description>",
	Short: "Create a product (admin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient()
		if err != nil {
			return err
		}

		cats, err := c.Categories(cmd.Context())
		if err != nil {
			return err
		}
		categoryName := ""
		for _, cat := range cats {
			if cat.ID == productCategory {
				categoryName = cat.Name
				break
			}
		}

		p, err := c.CreateProduct(cmd.Context(), shopclient.ProductForm{
			Name:         args[0],
			Description:  args[1],
			Price:        productPrice,
			CategoryID:   strconv.FormatInt(productCategory, 10),
			CategoryName: categoryName,
			ImagePaths:   productImages,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created product %d %q (%s)\n", p.ID, p.Name, strings.Join(p.Images, ", "))
		return nil
	},
}

func init() {
	addProductCmd.Flags().StringVar(&productPrice, "price", "", "Product price (required)")
	addProductCmd.Flags().Int64Var(&productCategory, "category", 0, "Category id (required)")
	addProductCmd.Flags().StringSliceVar(&productImages, "image", nil, "Image file to upload (repeatable, max 5)")
	_ = addProductCmd.MarkFlagRequired("price")
	_ = addProductCmd.MarkFlagRequired("category")

	rootCmd.AddCommand(productsCmd, categoriesCmd, addCategoryCmd, addProductCmd)
}
