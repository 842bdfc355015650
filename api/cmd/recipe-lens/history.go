package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"recipe-lens/api/internal/store"
)

var (
	historyLimit int
	purgeAfter   time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent analyses from the analysis log",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDB(ctx, cfg)
		if err != nil {
			return err
		}
		if db == nil {
			return errors.New("history needs DATABASE_URL")
		}
		defer db.Close()
		repo := store.NewAnalysisRepo(db)

		if purgeAfter > 0 {
			n, err := repo.PurgeOlderThan(ctx, purgeAfter)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d analyses older than %v.\n", n, purgeAfter)
		}

		rows, err := repo.Recent(ctx, historyLimit)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No analyses logged yet.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tSOURCE\tRECIPE\tINGREDIENTS")
		fmt.Fprintln(w, "--\t-------\t------\t------\t-----------")
		for _, a := range rows {
			status := "ok"
			if !a.RecipeOK {
				status = "-"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", a.ID, a.CreatedAt.Local().Format("2006-01-02 15:04"),
				a.Source, status, strings.Join(a.Ingredients, ", "))
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of analyses to show")
	historyCmd.Flags().DurationVar(&purgeAfter, "purge-older-than", 0, "delete analyses older than this first (e.g. 720h)")
	rootCmd.AddCommand(historyCmd)
}
