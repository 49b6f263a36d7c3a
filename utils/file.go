package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paologalligit/cinema-seat-advisor/entities"
)

// WriteResultsToFile dumps recommendations as indented JSON. Seat maps are left out.
func WriteResultsToFile(results []entities.SeatRecommendation, filename string) error {
	if results == nil {
		results = []entities.SeatRecommendation{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create results dir: %w", err)
		}
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write results to file: %w", err)
	}
	return nil
}
