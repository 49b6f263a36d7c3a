package persistence

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paologalligit/cinema-seat-advisor/entities"
)

var jan7 = time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)

func TestFileState(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dir", "latest.txt")
	store := NewFileState(path)

	_, err := store.LoadLatestDate(ctx)
	assert.ErrorIs(t, err, ErrNoState)

	require.NoError(t, store.StoreLatestDate(ctx, jan7))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-07", string(data))

	got, err := store.LoadLatestDate(ctx)
	require.NoError(t, err)
	assert.True(t, jan7.Equal(got))
}

func TestFileState_BadContent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o644))
	_, err := NewFileState(empty).LoadLatestDate(ctx)
	assert.ErrorIs(t, err, ErrNoState)

	garbage := filepath.Join(dir, "garbage.txt")
	require.NoError(t, os.WriteFile(garbage, []byte("next tuesday"), 0o644))
	_, err = NewFileState(garbage).LoadLatestDate(ctx)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoState)
}

func TestFileAlertLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.jsonl")
	log := NewFileAlertLog(path)

	first := entities.AlertLogEntry{RunId: "r1", Movie: "avatar", ScreeningDate: "2026-01-07", RowNumber: 5, SeatNumbers: []int{7, 8}, Score: 0.91}
	second := entities.AlertLogEntry{RunId: "r1", Movie: "avatar", ScreeningDate: "2026-01-08", RowNumber: 6, SeatNumbers: []int{3, 4}, Score: 0.85}
	require.NoError(t, log.WriteAlert(context.Background(), first))
	require.NoError(t, log.WriteAlert(context.Background(), second))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []entities.AlertLogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e entities.AlertLogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}
	require.Len(t, entries, 2)
	assert.Equal(t, []int{7, 8}, entries[0].SeatNumbers)
	assert.Equal(t, "2026-01-08", entries[1].ScreeningDate)
}

type fakeRow struct {
	value string
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.value
	return nil
}

type fakeDB struct {
	row   fakeRow
	err   error
	execs []string
	args  [][]any
}

func (f *fakeDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	f.args = append(f.args, arguments)
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return f.row
}

func TestPostgresState(t *testing.T) {
	ctx := context.Background()

	_, err := (&PostgresState{db: &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}}).LoadLatestDate(ctx)
	assert.ErrorIs(t, err, ErrNoState)

	got, err := (&PostgresState{db: &fakeDB{row: fakeRow{value: "2026-01-07"}}}).LoadLatestDate(ctx)
	require.NoError(t, err)
	assert.True(t, jan7.Equal(got))

	_, err = (&PostgresState{db: &fakeDB{row: fakeRow{err: errors.New("conn reset")}}}).LoadLatestDate(ctx)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoState)

	db := &fakeDB{}
	require.NoError(t, (&PostgresState{db: db}).StoreLatestDate(ctx, jan7))
	require.Len(t, db.args, 1)
	assert.Equal(t, latestDateKey, db.args[0][0])
	assert.Equal(t, "2026-01-07", db.args[0][1])
	assert.Contains(t, db.execs[0], "ON CONFLICT (key)")
}

func TestPostgresAlertLog(t *testing.T) {
	db := &fakeDB{}
	entry := entities.AlertLogEntry{RunId: "r", Movie: "m", ScreeningDate: "2026-01-07", RowNumber: 4, SeatNumbers: []int{1, 2}, Score: 0.9}
	require.NoError(t, (&PostgresAlertLog{db: db}).WriteAlert(context.Background(), entry))
	require.Len(t, db.args, 1)
	assert.Len(t, db.args[0], 10)
	assert.Equal(t, []int{1, 2}, db.args[0][6])

	failing := &fakeDB{err: errors.New("relation does not exist")}
	assert.Error(t, (&PostgresAlertLog{db: failing}).WriteAlert(context.Background(), entry))
}

func TestExecStatements_Schema(t *testing.T) {
	data, err := os.ReadFile("../db/schema.sql")
	require.NoError(t, err)

	db := &fakeDB{}
	require.NoError(t, execStatements(context.Background(), db, string(data)))
	require.Len(t, db.execs, 3)
	assert.Contains(t, db.execs[0], "CREATE TABLE IF NOT EXISTS monitor_state")
	assert.Contains(t, db.execs[1], "CREATE TABLE IF NOT EXISTS alert_log")
	assert.NotContains(t, db.execs[1], "--")
}

type fakeRedis struct {
	values map[string]string
	getErr error
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.values[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func TestRedisState(t *testing.T) {
	ctx := context.Background()
	kv := &fakeRedis{values: map[string]string{}}
	store := &RedisState{client: kv, key: RedisStateKey}

	_, err := store.LoadLatestDate(ctx)
	assert.ErrorIs(t, err, ErrNoState)

	require.NoError(t, store.StoreLatestDate(ctx, jan7))
	assert.Equal(t, "2026-01-07", kv.values[RedisStateKey])

	got, err := store.LoadLatestDate(ctx)
	require.NoError(t, err)
	assert.True(t, jan7.Equal(got))

	kv.getErr = errors.New("connection refused")
	_, err = store.LoadLatestDate(ctx)
	assert.Error(t, err)
}
