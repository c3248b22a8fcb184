// Package store persists validated schedule records and the per-route
// audit log. Ingestion is at-least-once: duplicate submissions of a record
// with the same content identity (route, operator, departure, price) are
// absorbed here, not by the scraper.
package store

import (
	"context"

	"github.com/routepulse/collector-cli/internal/model"
)

// RecordError describes one record a bulk ingest could not accept.
type RecordError struct {
	Index    int    `json:"index"`
	Operator string `json:"operator"`
	Detail   string `json:"detail"`
}

// IngestResult reports the outcome of one BulkIngest call.
type IngestResult struct {
	Accepted   int           `json:"accepted"`
	Duplicates int           `json:"duplicates"`
	Rejected   int           `json:"rejected"`
	Errors     []RecordError `json:"errors,omitempty"`
}

// JobFilter selects job log entries.
type JobFilter struct {
	Status model.JobStatus `json:"status,omitempty"`
	Source string          `json:"source,omitempty"`
	Limit  int             `json:"limit,omitempty"`
}

// ScheduleFilter selects ingested schedule records for reporting.
type ScheduleFilter struct {
	RouteLabel     string   `json:"route_label,omitempty"`
	ServiceClasses []string `json:"service_classes,omitempty"`
	MinPrice       *float64 `json:"min_price,omitempty"`
	MaxPrice       *float64 `json:"max_price,omitempty"`
	MinRating      *float64 `json:"min_rating,omitempty"`
	MinSeats       *int     `json:"min_seats,omitempty"`
	DepartAfter    string   `json:"depart_after,omitempty"`  // HH:MM
	DepartBefore   string   `json:"depart_before,omitempty"` // HH:MM
	Limit          int      `json:"limit,omitempty"`
}

// Statistics summarizes the ingested dataset.
type Statistics struct {
	TotalRecords int64   `json:"total_records"`
	TotalRoutes  int64   `json:"total_routes"`
	AvgPrice     float64 `json:"avg_price"`
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
	AvgRating    float64 `json:"avg_rating"`
}

// Store is the persistence boundary of the pipeline. BulkIngest must
// tolerate concurrent calls from multiple source workers; everything the
// scraper writes is append-only.
type Store interface {
	// Ingestion contract
	BulkIngest(ctx context.Context, records []model.ScheduleRecord) (IngestResult, error)

	// Job audit sink
	StartJob(ctx context.Context, target model.RouteTarget) (string, error)
	FinalizeJob(ctx context.Context, jobID string, status model.JobStatus, ingested int, errDetail string) error
	ListJobs(ctx context.Context, filter JobFilter) ([]model.ScrapeJobLog, error)

	// Reporting
	FilterSchedules(ctx context.Context, filter ScheduleFilter) ([]model.ScheduleRecord, error)
	Statistics(ctx context.Context) (*Statistics, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
