package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/brandos/internal/db"
)

var brandsCmd = &cobra.Command{
	Use:   "brands",
	Short: "Manage saved brands",
}

var brandsListLimit int

var brandsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved brands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := commandContext(cmd)
		a, err := newApp(ctx, appOptions{needDB: true, quiet: true})
		if err != nil {
			return err
		}
		defer a.Close()

		brands, err := a.db.ListBrands(ctx, brandsListLimit)
		if err != nil {
			return err
		}
		if len(brands) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No brands yet.")
			return nil
		}
		return writeBrandTable(cmd, brands)
	},
}

var brandsRenameCmd = &cobra.Command{
	Use:   "rename <brand> <new-name>",
	Short: "Rename a brand",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		a, err := newApp(ctx, appOptions{needDB: true, quiet: true})
		if err != nil {
			return err
		}
		defer a.Close()

		brand, err := a.lookupBrand(ctx, args[0])
		if err != nil {
			return err
		}
		renamed, err := a.db.RenameBrand(ctx, brand.ID, args[1])
		if errors.Is(err, db.ErrConflict) {
			return fmt.Errorf("another brand is already called %q", args[1])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed %q to %q\n", brand.Name, renamed.Name)
		return nil
	},
}

var brandsDeleteYes bool

var brandsDeleteCmd = &cobra.Command{
	Use:   "delete <brand>",
	Short: "Delete a brand and everything saved for it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !brandsDeleteYes {
			return fmt.Errorf("deleting %q removes its pages, analyses, reports and assets; pass --yes to confirm", args[0])
		}
		ctx := commandContext(cmd)
		a, err := newApp(ctx, appOptions{needDB: true, quiet: true})
		if err != nil {
			return err
		}
		defer a.Close()

		brand, err := a.lookupBrand(ctx, args[0])
		if err != nil {
			return err
		}
		if err := a.db.DeleteBrand(ctx, brand.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", brand.Name)
		return nil
	},
}

func init() {
	brandsListCmd.Flags().IntVar(&brandsListLimit, "limit", 50, "Maximum brands to list")
	brandsDeleteCmd.Flags().BoolVarP(&brandsDeleteYes, "yes", "y", false, "Confirm deletion")
	brandsCmd.AddCommand(brandsListCmd, brandsRenameCmd, brandsDeleteCmd)
	rootCmd.AddCommand(brandsCmd)
}

func writeBrandTable(cmd *cobra.Command, brands []db.BrandSummary) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tHOMEPAGE\tPAGES\tLAST ANALYZED")
	for _, b := range brands {
		home := "-"
		if b.HomepageURL != nil {
			home = *b.HomepageURL
		}
		last := "never"
		if b.LastAnalyzedAt != nil {
			last = b.LastAnalyzedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", b.Name, home, b.PageCount, last)
	}
	return tw.Flush()
}
