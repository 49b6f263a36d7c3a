package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// envReader reads typed values and keeps the first problem per key so Load
// can report every bad variable at once.
type envReader struct {
	lookup LookupFunc
	errs   []error
}

func (r *envReader) raw(key string) (string, bool) {
	v, ok := r.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (r *envReader) fail(key, value, kind string, err error) {
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s for %s: %q: %w", kind, key, value, err))
		return
	}
	r.errs = append(r.errs, fmt.Errorf("invalid %s for %s: %q", kind, key, value))
}

func (r *envReader) String(key, fallback string) string {
	if v, ok := r.raw(key); ok {
		return v
	}
	return fallback
}

func (r *envReader) Int(key string, fallback int) int {
	v, ok := r.raw(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, "integer", err)
		return fallback
	}
	return n
}

func (r *envReader) Float(key string, fallback float64) float64 {
	v, ok := r.raw(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v, "float", err)
		return fallback
	}
	return f
}

// OptionalFloat returns nil when the variable is "none" or "off".
func (r *envReader) OptionalFloat(key string, fallback *float64) *float64 {
	v, ok := r.raw(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(v) {
	case "none", "off":
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v, "float", err)
		return fallback
	}
	return &f
}

func (r *envReader) Bool(key string, fallback bool) bool {
	v, ok := r.raw(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	r.fail(key, v, "boolean", nil)
	return fallback
}

// Duration accepts Go durations ("90s", "5m") and bare numbers of seconds.
func (r *envReader) Duration(key string, fallback time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return fallback
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, "duration", err)
		return fallback
	}
	return d
}

func (r *envReader) Err() error {
	return errors.Join(r.errs...)
}
