package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paologalligit/cinema-seat-advisor/constant"
	"github.com/paologalligit/cinema-seat-advisor/entities"
)

const latestDateKey = "latest_screening_date"

// pgExecutor is the part of *pgxpool.Pool the stores use.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPostgresPool creates a new pgx connection pool
func NewPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}

// InitPostgresSchema reads the schema file and executes its statements
func InitPostgresSchema(ctx context.Context, pool *pgxpool.Pool, schemaFile string) error {
	sqlBytes, err := os.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	return execStatements(ctx, pool, string(sqlBytes))
}

func execStatements(ctx context.Context, db pgExecutor, sql string) error {
	// Split on semicolon to support multiple statements
	for stmt := range strings.SplitSeq(sql, ";") {
		stmt = stripComments(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %q: %w", stmt, err)
		}
	}
	return nil
}

func stripComments(stmt string) string {
	var lines []string
	for _, line := range strings.Split(stmt, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// PostgresState keeps the latest date in the monitor_state table
type PostgresState struct {
	db pgExecutor
}

func NewPostgresState(pool *pgxpool.Pool) *PostgresState {
	return &PostgresState{db: pool}
}

func (p *PostgresState) LoadLatestDate(ctx context.Context) (time.Time, error) {
	var value string
	err := p.db.QueryRow(ctx, `SELECT value FROM monitor_state WHERE key = $1`, latestDateKey).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, ErrNoState
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("error reading latest date: %w", err)
	}
	return parseDate(value)
}

func (p *PostgresState) StoreLatestDate(ctx context.Context, date time.Time) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO monitor_state (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`,
		latestDateKey,
		date.Format(constant.DATE_LAYOUT),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("error storing latest date: %w", err)
	}
	return nil
}

// PostgresAlertLog writes alerts to the alert_log table
type PostgresAlertLog struct {
	db pgExecutor
}

func NewPostgresAlertLog(pool *pgxpool.Pool) *PostgresAlertLog {
	return &PostgresAlertLog{db: pool}
}

func (p *PostgresAlertLog) WriteAlert(ctx context.Context, entry entities.AlertLogEntry) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO alert_log (run_id, movie, screening_date, show_label, order_url, row_number, seat_numbers, score, image_path, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		entry.RunId,
		entry.Movie,
		entry.ScreeningDate,
		entry.ShowLabel,
		entry.OrderURL,
		entry.RowNumber,
		entry.SeatNumbers,
		entry.Score,
		entry.ImagePath,
		entry.LoggedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting alert log entry: %w", err)
	}
	return nil
}
