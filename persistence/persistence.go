package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/paologalligit/cinema-seat-advisor/constant"
	"github.com/paologalligit/cinema-seat-advisor/entities"
)

// ErrNoState is returned when no latest date has been stored yet.
var ErrNoState = errors.New("no stored screening date")

// StateStore keeps the latest screening date seen across polling cycles.
// Implementations: FileState, RedisState, PostgresState
type StateStore interface {
	LoadLatestDate(ctx context.Context) (time.Time, error)
	StoreLatestDate(ctx context.Context, date time.Time) error
}

// AlertLog records every dispatched alert.
// Implementations: FileAlertLog, PostgresAlertLog
type AlertLog interface {
	WriteAlert(ctx context.Context, entry entities.AlertLogEntry) error
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrNoState
	}
	d, err := time.Parse(constant.DATE_LAYOUT, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("stored date %q: %w", value, err)
	}
	return d, nil
}

// FileState stores the date as ISO text in a single file.
type FileState struct {
	FilePath string
	mu       sync.Mutex
}

func NewFileState(filePath string) *FileState {
	return &FileState{FilePath: filePath}
}

func (f *FileState) LoadLatestDate(ctx context.Context) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.FilePath)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, ErrNoState
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("error reading state file: %w", err)
	}
	return parseDate(string(data))
}

func (f *FileState) StoreLatestDate(ctx context.Context, date time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.FilePath), 0o755); err != nil {
		return fmt.Errorf("error creating state directory: %w", err)
	}
	if err := os.WriteFile(f.FilePath, []byte(date.Format(constant.DATE_LAYOUT)), 0o644); err != nil {
		return fmt.Errorf("error writing state file: %w", err)
	}
	return nil
}

// FileAlertLog appends alerts to a file as JSON lines.
type FileAlertLog struct {
	FilePath string
	mu       sync.Mutex
}

func NewFileAlertLog(filePath string) *FileAlertLog {
	return &FileAlertLog{FilePath: filePath}
}

func (f *FileAlertLog) WriteAlert(ctx context.Context, entry entities.AlertLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, err := os.OpenFile(f.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error opening alert log: %w", err)
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	if err := enc.Encode(entry); err != nil {
		return fmt.Errorf("error writing alert log entry: %w", err)
	}
	return nil
}

// NopAlertLog drops every entry.
type NopAlertLog struct{}

func (NopAlertLog) WriteAlert(ctx context.Context, entry entities.AlertLogEntry) error { return nil }
