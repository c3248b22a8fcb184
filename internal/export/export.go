// Package export writes ingested schedule records to spreadsheet files for
// offline analysis.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/routepulse/collector-cli/internal/model"
)

var header = []string{
	"route", "operator", "service", "departure", "arrival",
	"duration_minutes", "price", "rating", "seats", "captured_at", "source_link",
}

func recordRow(r model.ScheduleRecord) []string {
	service := string(r.Service.Class)
	if r.Service.Unclassified {
		service = r.Service.Raw
	}
	rating := ""
	if r.Rating != nil {
		rating = strconv.FormatFloat(*r.Rating, 'f', 1, 64)
	}
	seats := ""
	if r.SeatsAvailable != nil {
		seats = strconv.Itoa(*r.SeatsAvailable)
	}
	return []string{
		r.RouteLabel,
		r.Operator,
		service,
		r.Departure.String(),
		r.Arrival.String(),
		strconv.Itoa(r.DurationMinutes),
		fmt.Sprintf("%.2f", r.Price),
		rating,
		seats,
		r.CapturedAt.UTC().Format(time.RFC3339),
		r.SourceLink,
	}
}

// WriteXLSX writes records to an xlsx workbook with a single sheet.
func WriteXLSX(path string, records []model.ScheduleRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Schedules")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	hr := sheet.AddRow()
	for _, h := range header {
		hr.AddCell().SetString(h)
	}
	for _, r := range records {
		row := sheet.AddRow()
		for _, v := range recordRow(r) {
			row.AddCell().SetString(v)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

// WriteCSV writes records as CSV.
func WriteCSV(path string, records []model.ScheduleRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, r := range records {
		if err := w.Write(recordRow(r)); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "export: flush")
}
