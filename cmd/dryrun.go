package main

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/routepulse/collector-cli/internal/model"
	"github.com/routepulse/collector-cli/internal/store"
)

// dryRunStore counts what a run would ingest without writing anything.
// Reads still hit the wrapped store so reporting commands stay usable.
type dryRunStore struct {
	store.Store
	discarded atomic.Int64
}

func (d *dryRunStore) BulkIngest(ctx context.Context, records []model.ScheduleRecord) (store.IngestResult, error) {
	d.discarded.Add(int64(len(records)))
	return store.IngestResult{Accepted: len(records)}, nil
}

func (d *dryRunStore) StartJob(ctx context.Context, target model.RouteTarget) (string, error) {
	return uuid.New().String(), nil
}

func (d *dryRunStore) FinalizeJob(ctx context.Context, jobID string, status model.JobStatus, ingested int, errDetail string) error {
	return nil
}
