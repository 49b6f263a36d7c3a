package entities

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time in minutes since midnight.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time of day %d:%02d", hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

type ScreeningDescriptor struct {
	Label    string            `json:"label"`
	ShowTime TimeOfDay         `json:"showTime"`
	OrderURL string            `json:"orderUrl"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type SeatBlockSuggestion struct {
	RowNumber     int      `json:"rowNumber"`
	SeatNumbers   []int    `json:"seatNumbers"`
	Labels        []string `json:"labels"`
	GridPositions []int    `json:"gridPositions"`
	Score         float64  `json:"score"`
}

// SeatRecommendation is what one screening produced in one advisor run.
type SeatRecommendation struct {
	ScreeningDate time.Time             `json:"screeningDate"`
	Screening     ScreeningDescriptor   `json:"screening"`
	SeatMap       *SeatMap              `json:"-"`
	Suggestions   []SeatBlockSuggestion `json:"suggestions"`
}

// AlertLogEntry records a dispatched alert.
type AlertLogEntry struct {
	RunId         string    `json:"runId"`
	Movie         string    `json:"movie"`
	ScreeningDate string    `json:"screeningDate"`
	ShowLabel     string    `json:"showLabel"`
	OrderURL      string    `json:"orderUrl"`
	RowNumber     int       `json:"rowNumber"`
	SeatNumbers   []int     `json:"seatNumbers"`
	Score         float64   `json:"score"`
	ImagePath     string    `json:"imagePath,omitempty"`
	LoggedAt      time.Time `json:"loggedAt"`
}
