package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/routepulse/collector-cli/internal/db"
	"github.com/routepulse/collector-cli/internal/model"
	"github.com/routepulse/collector-cli/internal/parse"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// scheduleColumns is the insert column list for bus_schedules. The content
// identity (route_label, operator_name, departure, price) carries the
// unique constraint that absorbs duplicate submissions.
var scheduleColumns = []string{
	"route_label", "source_link", "operator_name",
	"service_class", "service_raw", "service_unclassified",
	"departure", "arrival", "stated_duration", "duration_minutes",
	"rating", "price", "seats_available", "captured_at",
}

var scheduleConflictKeys = []string{"route_label", "operator_name", "departure", "price"}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS bus_schedules (
	id                   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	route_label          TEXT NOT NULL,
	source_link          TEXT NOT NULL,
	operator_name        TEXT NOT NULL,
	service_class        TEXT,
	service_raw          TEXT,
	service_unclassified BOOLEAN NOT NULL DEFAULT false,
	departure            TEXT NOT NULL,
	arrival              TEXT NOT NULL,
	stated_duration      TEXT,
	duration_minutes     INTEGER NOT NULL DEFAULT 0,
	rating               DOUBLE PRECISION,
	price                NUMERIC(10,2) NOT NULL,
	seats_available      INTEGER,
	captured_at          TIMESTAMPTZ NOT NULL,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (route_label, operator_name, departure, price)
);

CREATE INDEX IF NOT EXISTS idx_bus_schedules_route ON bus_schedules(route_label);
CREATE INDEX IF NOT EXISTS idx_bus_schedules_departure ON bus_schedules(departure);
CREATE INDEX IF NOT EXISTS idx_bus_schedules_price ON bus_schedules(price);

CREATE TABLE IF NOT EXISTS scrape_job_logs (
	id               TEXT PRIMARY KEY,
	source           TEXT NOT NULL,
	route_label      TEXT NOT NULL,
	route_url        TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'pending',
	records_ingested INTEGER NOT NULL DEFAULT 0,
	error            TEXT,
	started_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at     TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_scrape_job_logs_status ON scrape_job_logs(status);
CREATE INDEX IF NOT EXISTS idx_scrape_job_logs_source ON scrape_job_logs(source);
CREATE INDEX IF NOT EXISTS idx_scrape_job_logs_started ON scrape_job_logs(started_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// BulkIngest stores a batch of validated records. The fast path COPYs the
// batch through a temp table with ON CONFLICT DO NOTHING; if that fails it
// falls back to per-record inserts so one bad record cannot sink the batch.
func (s *PostgresStore) BulkIngest(ctx context.Context, records []model.ScheduleRecord) (IngestResult, error) {
	if len(records) == 0 {
		return IngestResult{}, nil
	}

	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, scheduleRow(r))
	}

	inserted, err := db.BulkInsertSkipConflicts(ctx, s.pool, db.UpsertConfig{
		Table:        "bus_schedules",
		Columns:      scheduleColumns,
		ConflictKeys: scheduleConflictKeys,
	}, rows)
	if err == nil {
		return IngestResult{
			Accepted:   int(inserted),
			Duplicates: len(records) - int(inserted),
		}, nil
	}

	zap.L().Warn("bulk ingest fast path failed, falling back to per-record inserts",
		zap.Int("records", len(records)),
		zap.Error(err),
	)
	return s.ingestPerRecord(ctx, records)
}

const insertScheduleSQL = `
INSERT INTO bus_schedules
	(route_label, source_link, operator_name,
	 service_class, service_raw, service_unclassified,
	 departure, arrival, stated_duration, duration_minutes,
	 rating, price, seats_available, captured_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (route_label, operator_name, departure, price) DO NOTHING`

func (s *PostgresStore) ingestPerRecord(ctx context.Context, records []model.ScheduleRecord) (IngestResult, error) {
	var result IngestResult
	for i, r := range records {
		tag, err := s.pool.Exec(ctx, insertScheduleSQL, scheduleRow(r)...)
		if err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, RecordError{
				Index:    i,
				Operator: r.Operator,
				Detail:   err.Error(),
			})
			continue
		}
		if tag.RowsAffected() == 0 {
			result.Duplicates++
			continue
		}
		result.Accepted++
	}

	if result.Accepted == 0 && result.Rejected == len(records) {
		return result, eris.Errorf("postgres: bulk ingest: all %d records rejected", len(records))
	}
	return result, nil
}

func scheduleRow(r model.ScheduleRecord) []any {
	var class any
	if r.Service.Class != "" {
		class = string(r.Service.Class)
	}
	return []any{
		r.RouteLabel, r.SourceLink, r.Operator,
		class, r.Service.Raw, r.Service.Unclassified,
		r.Departure.String(), r.Arrival.String(), r.StatedDuration, r.DurationMinutes,
		r.Rating, r.Price, r.SeatsAvailable, r.CapturedAt,
	}
}

func (s *PostgresStore) StartJob(ctx context.Context, target model.RouteTarget) (string, error) {
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scrape_job_logs (id, source, route_label, route_url, status, started_at)
		 VALUES ($1, $2, $3, $4, 'pending', now())`,
		id, target.Source, target.Label, target.URL,
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: start job for %s", target.URL)
	}
	return id, nil
}

func (s *PostgresStore) FinalizeJob(ctx context.Context, jobID string, status model.JobStatus, ingested int, errDetail string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scrape_job_logs
		 SET status = $1, records_ingested = $2, error = NULLIF($3, ''), completed_at = now()
		 WHERE id = $4 AND status = 'pending'`,
		string(status), ingested, errDetail, jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finalize job %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: job %s already finalized or unknown", jobID)
	}
	return nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.ScrapeJobLog, error) {
	query := `SELECT id, source, route_label, route_url, status, records_ingested,
		COALESCE(error, ''), started_at, completed_at
		FROM scrape_job_logs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		query += fmt.Sprintf(" AND source = $%d", len(args))
	}
	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var jobs []model.ScrapeJobLog
	for rows.Next() {
		var j model.ScrapeJobLog
		var status string
		if err := rows.Scan(&j.ID, &j.Source, &j.RouteLabel, &j.RouteURL, &status,
			&j.RecordsIngested, &j.Error, &j.StartedAt, &j.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		j.Status = model.JobStatus(status)
		jobs = append(jobs, j)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list jobs rows")
}

func (s *PostgresStore) FilterSchedules(ctx context.Context, filter ScheduleFilter) ([]model.ScheduleRecord, error) {
	query := `SELECT route_label, source_link, operator_name,
		COALESCE(service_class, ''), COALESCE(service_raw, ''), service_unclassified,
		departure, arrival, COALESCE(stated_duration, ''), duration_minutes,
		rating, price, seats_available, captured_at
		FROM bus_schedules WHERE 1=1`
	var args []any

	if filter.RouteLabel != "" {
		args = append(args, "%"+filter.RouteLabel+"%")
		query += fmt.Sprintf(" AND route_label ILIKE $%d", len(args))
	}
	if len(filter.ServiceClasses) > 0 {
		placeholders := make([]string, len(filter.ServiceClasses))
		for i, c := range filter.ServiceClasses {
			args = append(args, c)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		query += fmt.Sprintf(" AND service_class IN (%s)", strings.Join(placeholders, ","))
	}
	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		query += fmt.Sprintf(" AND price >= $%d", len(args))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		query += fmt.Sprintf(" AND price <= $%d", len(args))
	}
	if filter.MinRating != nil {
		args = append(args, *filter.MinRating)
		query += fmt.Sprintf(" AND rating >= $%d", len(args))
	}
	if filter.MinSeats != nil {
		args = append(args, *filter.MinSeats)
		query += fmt.Sprintf(" AND seats_available >= $%d", len(args))
	}
	if filter.DepartAfter != "" {
		args = append(args, filter.DepartAfter)
		query += fmt.Sprintf(" AND departure >= $%d", len(args))
	}
	if filter.DepartBefore != "" {
		args = append(args, filter.DepartBefore)
		query += fmt.Sprintf(" AND departure <= $%d", len(args))
	}
	query += " ORDER BY departure ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: filter schedules")
	}
	defer rows.Close()

	var records []model.ScheduleRecord
	for rows.Next() {
		rec, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: filter schedules rows")
}

func scanSchedule(rows pgx.Rows) (*model.ScheduleRecord, error) {
	var r model.ScheduleRecord
	var class, depStr, arrStr string
	if err := rows.Scan(&r.RouteLabel, &r.SourceLink, &r.Operator,
		&class, &r.Service.Raw, &r.Service.Unclassified,
		&depStr, &arrStr, &r.StatedDuration, &r.DurationMinutes,
		&r.Rating, &r.Price, &r.SeatsAvailable, &r.CapturedAt); err != nil {
		return nil, eris.Wrap(err, "postgres: scan schedule")
	}
	r.Service.Class = model.ServiceClass(class)
	if t, ok, _ := parse.ParseClock(depStr); ok {
		r.Departure = t
	}
	if t, ok, _ := parse.ParseClock(arrStr); ok {
		r.Arrival = t
	}
	return &r, nil
}

func (s *PostgresStore) Statistics(ctx context.Context) (*Statistics, error) {
	var st Statistics
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(DISTINCT route_label),
		       COALESCE(AVG(price), 0),
		       COALESCE(MIN(price), 0),
		       COALESCE(MAX(price), 0),
		       COALESCE(AVG(rating), 0)
		FROM bus_schedules`,
	).Scan(&st.TotalRecords, &st.TotalRoutes, &st.AvgPrice, &st.MinPrice, &st.MaxPrice, &st.AvgRating)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: statistics")
	}
	return &st, nil
}
