package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexInt decodes ids the booking API sends either as numbers or as numeric strings.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		return fmt.Errorf("empty id")
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", data, err)
	}
	*f = FlexInt(n)
	return nil
}

type Presentation struct {
	VenueId     FlexInt `json:"venueId"`
	SeatplanId  FlexInt `json:"seatplanId"`
	VenueTypeId FlexInt `json:"venueTypeId"`
}

type PresentationResponse struct {
	Presentation *Presentation `json:"presentation"`
}

// Seatplan mirrors the nested sections -> groups -> rows -> seats layout.
type Seatplan struct {
	Sections map[string]SeatplanSection `json:"S"`
}

type SeatplanSection struct {
	Groups map[string]SeatplanGroup `json:"G"`
}

type SeatplanGroup struct {
	Rows map[string]SeatplanRow `json:"R"`
}

type SeatplanRow struct {
	Name  string                  `json:"n"`
	Seats map[string]SeatplanSeat `json:"S"`
}

type SeatplanSeat struct {
	Name string `json:"n"`
}

// SeatStatusResponse maps section_seat_row keys to a status code, 0 meaning free.
type SeatStatusResponse struct {
	Seats map[string]int `json:"seats"`
}

// UnmarshalJSON accepts names sent as numbers as well as strings.
func (r *SeatplanRow) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name  json.RawMessage         `json:"n"`
		Seats map[string]SeatplanSeat `json:"S"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Name = rawName(raw.Name)
	r.Seats = raw.Seats
	return nil
}

func (s *SeatplanSeat) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name json.RawMessage `json:"n"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Name = rawName(raw.Name)
	return nil
}

func rawName(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
