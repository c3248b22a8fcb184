package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/routepulse/collector-cli/internal/model"
	"github.com/routepulse/collector-cli/internal/parse"
)

// SQLiteStore implements Store against a local sqlite file. Used for
// dry runs and single-machine collection where postgres is overkill.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (and creates if needed) a sqlite database at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: open %s", path)
	}
	// sqlite serializes writers; a single connection avoids SQLITE_BUSY
	// under concurrent source workers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: set pragmas")
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS bus_schedules (
	id                   TEXT PRIMARY KEY,
	route_label          TEXT NOT NULL,
	source_link          TEXT NOT NULL,
	operator_name        TEXT NOT NULL,
	service_class        TEXT,
	service_raw          TEXT,
	service_unclassified INTEGER NOT NULL DEFAULT 0,
	departure            TEXT NOT NULL,
	arrival              TEXT NOT NULL,
	stated_duration      TEXT,
	duration_minutes     INTEGER NOT NULL DEFAULT 0,
	rating               REAL,
	price                REAL NOT NULL,
	seats_available      INTEGER,
	captured_at          TEXT NOT NULL,
	created_at           TEXT NOT NULL DEFAULT (datetime('now')),
	UNIQUE (route_label, operator_name, departure, price)
);

CREATE INDEX IF NOT EXISTS idx_bus_schedules_route ON bus_schedules(route_label);
CREATE INDEX IF NOT EXISTS idx_bus_schedules_departure ON bus_schedules(departure);

CREATE TABLE IF NOT EXISTS scrape_job_logs (
	id               TEXT PRIMARY KEY,
	source           TEXT NOT NULL,
	route_label      TEXT NOT NULL,
	route_url        TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'pending',
	records_ingested INTEGER NOT NULL DEFAULT 0,
	error            TEXT,
	started_at       TEXT NOT NULL DEFAULT (datetime('now')),
	completed_at     TEXT
);

CREATE INDEX IF NOT EXISTS idx_scrape_job_logs_status ON scrape_job_logs(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteInsertScheduleSQL = `
INSERT OR IGNORE INTO bus_schedules
	(id, route_label, source_link, operator_name,
	 service_class, service_raw, service_unclassified,
	 departure, arrival, stated_duration, duration_minutes,
	 rating, price, seats_available, captured_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// BulkIngest inserts the batch inside one transaction. INSERT OR IGNORE is
// the sqlite analogue of ON CONFLICT DO NOTHING on the content identity.
func (s *SQLiteStore) BulkIngest(ctx context.Context, records []model.ScheduleRecord) (IngestResult, error) {
	var result IngestResult
	if len(records) == 0 {
		return result, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, eris.Wrap(err, "sqlite: bulk ingest: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, sqliteInsertScheduleSQL)
	if err != nil {
		return result, eris.Wrap(err, "sqlite: bulk ingest: prepare")
	}
	defer stmt.Close()

	for i, r := range records {
		var class any
		if r.Service.Class != "" {
			class = string(r.Service.Class)
		}
		res, err := stmt.ExecContext(ctx,
			uuid.New().String(), r.RouteLabel, r.SourceLink, r.Operator,
			class, r.Service.Raw, r.Service.Unclassified,
			r.Departure.String(), r.Arrival.String(), r.StatedDuration, r.DurationMinutes,
			r.Rating, r.Price, r.SeatsAvailable, r.CapturedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, RecordError{
				Index:    i,
				Operator: r.Operator,
				Detail:   err.Error(),
			})
			continue
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			result.Duplicates++
			continue
		}
		result.Accepted++
	}

	if err := tx.Commit(); err != nil {
		return IngestResult{}, eris.Wrap(err, "sqlite: bulk ingest: commit")
	}
	return result, nil
}

func (s *SQLiteStore) StartJob(ctx context.Context, target model.RouteTarget) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scrape_job_logs (id, source, route_label, route_url, status, started_at)
		 VALUES (?, ?, ?, ?, 'pending', ?)`,
		id, target.Source, target.Label, target.URL, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: start job for %s", target.URL)
	}
	return id, nil
}

func (s *SQLiteStore) FinalizeJob(ctx context.Context, jobID string, status model.JobStatus, ingested int, errDetail string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scrape_job_logs
		 SET status = ?, records_ingested = ?, error = NULLIF(?, ''), completed_at = ?
		 WHERE id = ? AND status = 'pending'`,
		string(status), ingested, errDetail, time.Now().UTC().Format(time.RFC3339), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finalize job %s", jobID)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return eris.Errorf("sqlite: job %s already finalized or unknown", jobID)
	}
	return nil
}

func (s *SQLiteStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.ScrapeJobLog, error) {
	query := `SELECT id, source, route_label, route_url, status, records_ingested,
		COALESCE(error, ''), started_at, completed_at
		FROM scrape_job_logs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.Source != "" {
		query += " AND source = ?"
		args = append(args, filter.Source)
	}
	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close()

	var jobs []model.ScrapeJobLog
	for rows.Next() {
		var j model.ScrapeJobLog
		var status, started string
		var completed sql.NullString
		if err := rows.Scan(&j.ID, &j.Source, &j.RouteLabel, &j.RouteURL, &status,
			&j.RecordsIngested, &j.Error, &started, &completed); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan job")
		}
		j.Status = model.JobStatus(status)
		j.StartedAt, _ = time.Parse(time.RFC3339, started)
		if completed.Valid {
			if t, err := time.Parse(time.RFC3339, completed.String); err == nil {
				j.CompletedAt = &t
			}
		}
		jobs = append(jobs, j)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list jobs rows")
}

func (s *SQLiteStore) FilterSchedules(ctx context.Context, filter ScheduleFilter) ([]model.ScheduleRecord, error) {
	query := `SELECT route_label, source_link, operator_name,
		COALESCE(service_class, ''), COALESCE(service_raw, ''), service_unclassified,
		departure, arrival, COALESCE(stated_duration, ''), duration_minutes,
		rating, price, seats_available, captured_at
		FROM bus_schedules WHERE 1=1`
	var args []any

	if filter.RouteLabel != "" {
		query += " AND route_label LIKE ?"
		args = append(args, "%"+filter.RouteLabel+"%")
	}
	if len(filter.ServiceClasses) > 0 {
		query += fmt.Sprintf(" AND service_class IN (%s)",
			strings.TrimSuffix(strings.Repeat("?,", len(filter.ServiceClasses)), ","))
		for _, c := range filter.ServiceClasses {
			args = append(args, c)
		}
	}
	if filter.MinPrice != nil {
		query += " AND price >= ?"
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query += " AND price <= ?"
		args = append(args, *filter.MaxPrice)
	}
	if filter.MinRating != nil {
		query += " AND rating >= ?"
		args = append(args, *filter.MinRating)
	}
	if filter.MinSeats != nil {
		query += " AND seats_available >= ?"
		args = append(args, *filter.MinSeats)
	}
	if filter.DepartAfter != "" {
		query += " AND departure >= ?"
		args = append(args, filter.DepartAfter)
	}
	if filter.DepartBefore != "" {
		query += " AND departure <= ?"
		args = append(args, filter.DepartBefore)
	}
	query += " ORDER BY departure ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: filter schedules")
	}
	defer rows.Close()

	var records []model.ScheduleRecord
	for rows.Next() {
		var r model.ScheduleRecord
		var class, depStr, arrStr, captured string
		var rating sql.NullFloat64
		var seats sql.NullInt64
		if err := rows.Scan(&r.RouteLabel, &r.SourceLink, &r.Operator,
			&class, &r.Service.Raw, &r.Service.Unclassified,
			&depStr, &arrStr, &r.StatedDuration, &r.DurationMinutes,
			&rating, &r.Price, &seats, &captured); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan schedule")
		}
		r.Service.Class = model.ServiceClass(class)
		if t, ok, _ := parse.ParseClock(depStr); ok {
			r.Departure = t
		}
		if t, ok, _ := parse.ParseClock(arrStr); ok {
			r.Arrival = t
		}
		if rating.Valid {
			v := rating.Float64
			r.Rating = &v
		}
		if seats.Valid {
			v := int(seats.Int64)
			r.SeatsAvailable = &v
		}
		r.CapturedAt, _ = time.Parse(time.RFC3339, captured)
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: filter schedules rows")
}

func (s *SQLiteStore) Statistics(ctx context.Context) (*Statistics, error) {
	var st Statistics
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(DISTINCT route_label),
		       COALESCE(AVG(price), 0),
		       COALESCE(MIN(price), 0),
		       COALESCE(MAX(price), 0),
		       COALESCE(AVG(rating), 0)
		FROM bus_schedules`,
	).Scan(&st.TotalRecords, &st.TotalRoutes, &st.AvgPrice, &st.MinPrice, &st.MaxPrice, &st.AvgRating)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: statistics")
	}
	return &st, nil
}
