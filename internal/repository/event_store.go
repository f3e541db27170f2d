package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"Astrolabe/internal/domain/models"
	domrepo "Astrolabe/internal/domain/repository"
	pkgch "Astrolabe/pkg/clickhouse"
	applogger "Astrolabe/pkg/logger"
)

const skyEventColumns = "id, month, kind, date, body_a, body_b, aspect, orb, sign, detail"

// CHEventStore keeps scanned sky events in ClickHouse. Rescans of a month
// write the same ids again; the ReplacingMergeTree keeps the latest row.
type CHEventStore struct {
	client   *pkgch.Client
	database string
	table    string
	l        *applogger.Logger
	now      func() time.Time
}

var _ domrepo.EventStore = (*CHEventStore)(nil)

func NewCHEventStore(client *pkgch.Client, database, table string, l *applogger.Logger) *CHEventStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHEventStore{client: client, database: database, table: table, l: l, now: time.Now}
}

func (s *CHEventStore) qualified() string {
	return s.database + "." + s.table
}

func schemaStatements(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			id String,
			month String,
			kind LowCardinality(String),
			date Date,
			body_a LowCardinality(String),
			body_b LowCardinality(String),
			aspect LowCardinality(String),
			orb Float64,
			sign LowCardinality(String),
			detail String,
			scanned_at DateTime
		) ENGINE = ReplacingMergeTree(scanned_at)
		PARTITION BY month
		ORDER BY (date, kind, id)`, database, table),
	}
}

func (s *CHEventStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, schemaStatements(s.database, s.table))
}

func (s *CHEventStore) StoreEvents(ctx context.Context, events []models.SkyEvent) error {
	if len(events) == 0 {
		return nil
	}
	start := time.Now()
	rows, err := eventRows(events, s.now().UTC())
	if err != nil {
		return err
	}

	q := fmt.Sprintf("INSERT INTO %s (%s, scanned_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.qualified(), skyEventColumns)
	if err := s.client.InsertBatch(ctx, q, rows); err != nil {
		s.l.Error("clickhouse store_events error",
			applogger.String("table", s.qualified()),
			applogger.Int("rows", len(rows)),
			applogger.Error(err),
		)
		return fmt.Errorf("store sky events: %w", err)
	}
	s.l.Info("clickhouse store_events ok",
		applogger.String("table", s.qualified()),
		applogger.Int("rows", len(rows)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func eventRows(events []models.SkyEvent, scannedAt time.Time) ([][]any, error) {
	rows := make([][]any, 0, len(events))
	for _, e := range events {
		date, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			return nil, fmt.Errorf("event %s: bad date %q", e.ID, e.Date)
		}
		rows = append(rows, []any{
			e.ID, e.Month, string(e.Kind), date, e.BodyA, e.BodyB, e.Aspect, e.Orb, e.Sign, e.Detail, scannedAt,
		})
	}
	return rows, nil
}

// historyQuery selects deduplicated events in [From, To).
func historyQuery(table string, f models.SkyEventFilter) (string, []any) {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s FINAL WHERE date >= ? AND date < ?", skyEventColumns, table)
	args := []any{f.From, f.To}
	if f.Kind != "" {
		b.WriteString(" AND kind = ?")
		args = append(args, string(f.Kind))
	}
	b.WriteString(" ORDER BY date ASC, kind ASC, id ASC")
	if f.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}
	return b.String(), args
}

func (s *CHEventStore) QueryEvents(ctx context.Context, f models.SkyEventFilter) ([]models.SkyEvent, error) {
	q, args := historyQuery(s.qualified(), f)
	rows, err := s.client.DB().QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse query_events error",
			applogger.String("table", s.qualified()),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("query sky events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]models.SkyEvent, error) {
	out := make([]models.SkyEvent, 0, 64)
	for rows.Next() {
		var (
			e    models.SkyEvent
			kind string
			date time.Time
		)
		if err := rows.Scan(&e.ID, &e.Month, &kind, &date, &e.BodyA, &e.BodyB, &e.Aspect, &e.Orb, &e.Sign, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan sky event: %w", err)
		}
		e.Kind = models.SkyEventKind(kind)
		e.Date = date.Format("2006-01-02")
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHEventStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *CHEventStore) Close() error {
	return s.client.Close()
}
