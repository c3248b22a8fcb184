package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/routepulse/collector-cli/internal/model"
)

func testRecords() []model.ScheduleRecord {
	rating := 4.3
	seats := 12
	return []model.ScheduleRecord{
		{
			RouteLabel:      "Bangalore to Hyderabad",
			SourceLink:      "https://example.test/r1",
			Operator:        "VRL Travels",
			Service:         model.ServiceLabel{Class: model.ServiceACSleeper, Raw: "A/C Sleeper (2+1)"},
			Departure:       model.ClockTime{Hour: 21, Minute: 30},
			Arrival:         model.ClockTime{Hour: 5, Minute: 45},
			DurationMinutes: 495,
			Rating:          &rating,
			Price:           950,
			SeatsAvailable:  &seats,
			CapturedAt:      time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		},
		{
			RouteLabel: "Bangalore to Hyderabad",
			SourceLink: "https://example.test/r1",
			Operator:   "Mystery Lines",
			Service:    model.ServiceLabel{Raw: "Luxury Coach", Unclassified: true},
			Departure:  model.ClockTime{Hour: 22, Minute: 0},
			Arrival:    model.ClockTime{Hour: 6, Minute: 0},
			Price:      700,
			CapturedAt: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		},
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteCSV(path, testRecords()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, header, rows[0])
	assert.Equal(t, "VRL Travels", rows[1][1])
	assert.Equal(t, "AC Sleeper", rows[1][2])
	assert.Equal(t, "21:30", rows[1][3])
	assert.Equal(t, "950.00", rows[1][6])
	assert.Equal(t, "4.3", rows[1][7])

	// Unclassified service exports the verbatim text, optionals stay empty.
	assert.Equal(t, "Luxury Coach", rows[2][2])
	assert.Equal(t, "", rows[2][7])
	assert.Equal(t, "", rows[2][8])
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteXLSX(path, testRecords()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet, ok := f.Sheet["Schedules"]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "route", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "VRL Travels", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, "Mystery Lines", sheet.Rows[2].Cells[1].String())
}
