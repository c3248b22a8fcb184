package main

import (
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dataset statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.Statistics(ctx)
		if err != nil {
			return err
		}

		cmd.Printf("Records:    %d\n", stats.TotalRecords)
		cmd.Printf("Routes:     %d\n", stats.TotalRoutes)
		cmd.Printf("Avg price:  ₹%.2f\n", stats.AvgPrice)
		cmd.Printf("Price span: ₹%.2f to ₹%.2f\n", stats.MinPrice, stats.MaxPrice)
		cmd.Printf("Avg rating: %.2f/5.0\n", stats.AvgRating)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
