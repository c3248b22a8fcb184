package diag

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routepulse/collector-cli/internal/model"
)

func TestFileSinkSave(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	require.NoError(t, err)

	c := Capture{
		Target: model.RouteTarget{
			Source: "redbus",
			Label:  "Bangalore to Hyderabad",
			URL:    "https://example.test/r1",
		},
		TakenAt:    time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC),
		HTML:       "<html><body>empty results</body></html>",
		Screenshot: []byte{0x89, 0x50, 0x4e, 0x47},
	}
	require.NoError(t, sink.Save(context.Background(), c))

	htmlPath := filepath.Join(dir, "redbus_bangalore-to-hyderabad_20260820T103000Z.html")
	data, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "empty results")

	pngPath := filepath.Join(dir, "redbus_bangalore-to-hyderabad_20260820T103000Z.png")
	png, err := os.ReadFile(pngPath)
	require.NoError(t, err)
	assert.Equal(t, c.Screenshot, png)
}

func TestFileSinkSkipsEmptyScreenshot(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	require.NoError(t, err)

	c := Capture{
		Target:  model.RouteTarget{Source: "redbus", Label: "A to B"},
		TakenAt: time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC),
		HTML:    "<html></html>",
	}
	require.NoError(t, sink.Save(context.Background(), c))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".html", filepath.Ext(entries[0].Name()))
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Bangalore to Hyderabad", "bangalore-to-hyderabad"},
		{"A/C  Route -- 5", "a-c-route-5"},
		{"", "page"},
		{"!!!", "page"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slug(tt.in), "slug(%q)", tt.in)
	}
}
