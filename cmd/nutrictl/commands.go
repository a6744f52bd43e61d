package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"nutrition-backend/internal/meals"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the local database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := openDB(cmd.Context(), opts.dbPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", opts.dbPath)
			return nil
		},
	}
}

func newRecommendCmd(opts *options) *cobra.Command {
	var (
		top    int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank catalog foods against the logged intake",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.db.Close()

			res, err := e.recommender().Recommend(cmd.Context(), e.userID)
			if err != nil {
				return err
			}
			if top > 0 && len(res.Items) > top {
				res.Items = res.Items[:top]
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}
			fmt.Fprintf(out, "under-consumed: %v\n", res.UnderConsumed)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tID\tNAME\tSCORE\tWHY")
			for _, it := range res.Items {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%s\n", it.Rank, it.ID, it.Name, it.Score, it.Explanation)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&top, "top", "n", 0, "show at most n foods")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func newAcceptCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "accept <foodID>",
		Short: "Log a recommended food and count the acceptance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.db.Close()

			res, err := e.recommender().Accept(cmd.Context(), e.userID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged %s (%.0f kcal), accepted %d time(s)\n",
				res.Entry.Name, res.Entry.Calories, res.AcceptCount)
			return nil
		},
	}
}

func newLogCmd(opts *options) *cobra.Command {
	var protein, carbs, fats float64
	cmd := &cobra.Command{
		Use:   "log <name> <kcal>",
		Short: "Add a custom food to the meal log",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kcal, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("kcal must be a number: %w", err)
			}
			e, err := open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.db.Close()

			entry, err := e.meals().AddCustom(cmd.Context(), e.userID, meals.CustomInput{
				Name:     args[0],
				Calories: kcal,
				Protein:  protein,
				Carbs:    carbs,
				Fats:     fats,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged %s %s\n", entry.Name, entry.ID)
			return nil
		},
	}
	cmd.Flags().Float64Var(&protein, "protein", 0, "grams of protein")
	cmd.Flags().Float64Var(&carbs, "carbs", 0, "grams of carbohydrate")
	cmd.Flags().Float64Var(&fats, "fats", 0, "grams of fat")
	return cmd
}

func newFoodsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "foods",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(opts.catalogPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "catalog %s, %d foods\n", cat.Version(), cat.Len())
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tKCAL\tPROTEIN\tCARBS\tFATS")
			for _, f := range cat.Foods() {
				n := f.Nutrients
				fmt.Fprintf(tw, "%s\t%s\t%g\t%g\t%g\t%g\n", f.ID, f.Name, n.Calories, n.Protein, n.Carbs, n.Fats)
			}
			return tw.Flush()
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
