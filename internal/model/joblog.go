package model

import "time"

// JobStatus is the lifecycle state of one route-processing attempt.
type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusSuccess JobStatus = "success"
	JobStatusPartial JobStatus = "partial"
	JobStatusFailed  JobStatus = "failed"
)

// ScrapeJobLog is the audit record for one RouteTarget attempt. It is
// opened as pending before the route is visited and finalized exactly once
// no matter how the attempt ends. This is the unit of observability for
// operators.
type ScrapeJobLog struct {
	ID              string     `json:"id"`
	Source          string     `json:"source"`
	RouteLabel      string     `json:"route_label"`
	RouteURL        string     `json:"route_url"`
	Status          JobStatus  `json:"status"`
	RecordsIngested int        `json:"records_ingested"`
	Error           string     `json:"error,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// RunSummary accumulates run-level totals across all sources and routes.
// A run always completes and reports one of these; individual route or
// record failures never terminate it early.
type RunSummary struct {
	SourcesAttempted int           `json:"sources_attempted"`
	SourcesFailed    int           `json:"sources_failed"`
	RoutesAttempted  int           `json:"routes_attempted"`
	RoutesSucceeded  int           `json:"routes_succeeded"`
	RoutesPartial    int           `json:"routes_partial"`
	RoutesFailed     int           `json:"routes_failed"`
	RecordsIngested  int           `json:"records_ingested"`
	RecordsRejected  int           `json:"records_rejected"`
	Elapsed          time.Duration `json:"elapsed"`
}
