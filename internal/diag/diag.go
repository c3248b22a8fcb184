// Package diag persists page captures for failed scrape attempts so an
// operator can see what the site actually served when extraction found
// nothing or navigation gave up.
package diag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/routepulse/collector-cli/internal/model"
)

// Capture is one diagnostic snapshot of a route page.
type Capture struct {
	Target     model.RouteTarget
	TakenAt    time.Time
	HTML       string
	Screenshot []byte // PNG, empty for static sessions
}

// Sink receives captures. Implementations must tolerate concurrent calls
// from multiple source workers.
type Sink interface {
	Save(ctx context.Context, c Capture) error
}

// FileSink writes captures into a directory as
// <source>_<route-slug>_<timestamp>.html (and .png when present).
type FileSink struct {
	dir string
	log *zap.Logger
}

func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "diag: create capture dir %s", dir)
	}
	return &FileSink{
		dir: dir,
		log: zap.L().With(zap.String("component", "diag")),
	}, nil
}

func (s *FileSink) Save(ctx context.Context, c Capture) error {
	base := fmt.Sprintf("%s_%s_%s",
		slug(c.Target.Source),
		slug(c.Target.Label),
		c.TakenAt.UTC().Format("20060102T150405Z"),
	)

	htmlPath := filepath.Join(s.dir, base+".html")
	if err := os.WriteFile(htmlPath, []byte(c.HTML), 0o644); err != nil {
		return eris.Wrapf(err, "diag: write %s", htmlPath)
	}
	s.log.Info("saved page capture", zap.String("path", htmlPath))

	if len(c.Screenshot) > 0 {
		pngPath := filepath.Join(s.dir, base+".png")
		if err := os.WriteFile(pngPath, c.Screenshot, 0o644); err != nil {
			return eris.Wrapf(err, "diag: write %s", pngPath)
		}
		s.log.Info("saved screenshot", zap.String("path", pngPath))
	}
	return nil
}

// NopSink discards captures; used for dry runs.
type NopSink struct{}

func (NopSink) Save(context.Context, Capture) error { return nil }

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '/':
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	if out == "" {
		return "page"
	}
	return out
}
