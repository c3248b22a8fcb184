package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/routepulse/collector-cli/internal/export"
	"github.com/routepulse/collector-cli/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export ingested schedules to a spreadsheet",
	Long: `Export schedule records matching the given filters to an xlsx or csv
file. Filters mirror the query surface: route substring, service classes,
price and rating bounds, and a departure window.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		filter, err := buildScheduleFilter(cmd)
		if err != nil {
			return err
		}

		records, err := st.FilterSchedules(ctx, filter)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			cmd.Println("No records match the given filters.")
			return nil
		}

		out, _ := cmd.Flags().GetString("out")
		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "xlsx":
			err = export.WriteXLSX(out, records)
		case "csv":
			err = export.WriteCSV(out, records)
		default:
			return eris.Errorf("unsupported format %q (want xlsx or csv)", format)
		}
		if err != nil {
			return err
		}

		zap.L().Info("export written",
			zap.String("path", out),
			zap.Int("records", len(records)),
		)
		cmd.Printf("Wrote %d records to %s\n", len(records), out)
		return nil
	},
}

func buildScheduleFilter(cmd *cobra.Command) (store.ScheduleFilter, error) {
	var f store.ScheduleFilter

	f.RouteLabel, _ = cmd.Flags().GetString("route")
	if classes, _ := cmd.Flags().GetString("classes"); classes != "" {
		f.ServiceClasses = splitAndTrim(classes)
	}
	if cmd.Flags().Changed("min-price") {
		v, _ := cmd.Flags().GetFloat64("min-price")
		f.MinPrice = &v
	}
	if cmd.Flags().Changed("max-price") {
		v, _ := cmd.Flags().GetFloat64("max-price")
		f.MaxPrice = &v
	}
	if cmd.Flags().Changed("min-rating") {
		v, _ := cmd.Flags().GetFloat64("min-rating")
		f.MinRating = &v
	}
	if cmd.Flags().Changed("min-seats") {
		v, _ := cmd.Flags().GetInt("min-seats")
		f.MinSeats = &v
	}
	f.DepartAfter, _ = cmd.Flags().GetString("depart-after")
	f.DepartBefore, _ = cmd.Flags().GetString("depart-before")
	for _, hhmm := range []string{f.DepartAfter, f.DepartBefore} {
		if hhmm != "" && !validHHMM(hhmm) {
			return f, eris.Errorf("bad departure bound %q (want HH:MM)", hhmm)
		}
	}
	f.Limit, _ = cmd.Flags().GetInt("limit")
	return f, nil
}

func validHHMM(s string) bool {
	parts := strings.SplitN(s, ":", 2)
	return len(parts) == 2 && len(parts[0]) == 2 && len(parts[1]) == 2
}

func init() {
	exportCmd.Flags().String("out", "schedules.xlsx", "output file path")
	exportCmd.Flags().String("format", "xlsx", "output format: xlsx or csv")
	exportCmd.Flags().String("route", "", "route label substring filter")
	exportCmd.Flags().String("classes", "", "comma-separated service classes")
	exportCmd.Flags().Float64("min-price", 0, "minimum price")
	exportCmd.Flags().Float64("max-price", 0, "maximum price")
	exportCmd.Flags().Float64("min-rating", 0, "minimum star rating")
	exportCmd.Flags().Int("min-seats", 0, "minimum seats available")
	exportCmd.Flags().String("depart-after", "", "earliest departure (HH:MM)")
	exportCmd.Flags().String("depart-before", "", "latest departure (HH:MM)")
	exportCmd.Flags().Int("limit", 0, "max records to export (0 = all)")
	rootCmd.AddCommand(exportCmd)
}
