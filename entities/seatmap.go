package entities

import (
	"maps"
	"sort"
	"strings"
)

// SeatStatus is the availability of a seat as published by the venue.
type SeatStatus int

const (
	StatusUnknown SeatStatus = iota
	StatusAvailable
	StatusOccupied
	StatusWheelchair
)

// statusKeywords is checked in order, the first keyword found wins.
var statusKeywords = []struct {
	keyword string
	status  SeatStatus
}{
	{"wheelchair", StatusWheelchair},
	{"available", StatusAvailable},
	{"occupied", StatusOccupied},
}

// StatusFromDescription classifies a free-text seat description.
func StatusFromDescription(text string) SeatStatus {
	lowered := strings.ToLower(text)
	for _, kw := range statusKeywords {
		if strings.Contains(lowered, kw.keyword) {
			return kw.status
		}
	}
	return StatusUnknown
}

func (s SeatStatus) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusOccupied:
		return "occupied"
	case StatusWheelchair:
		return "wheelchair"
	default:
		return "unknown"
	}
}

func (s SeatStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Seat struct {
	RowNumber  int               `json:"rowNumber"`
	SeatNumber int               `json:"seatNumber"`
	Label      string            `json:"label"`
	Status     SeatStatus        `json:"status"`
	GridX      int               `json:"gridX"`
	GridRow    int               `json:"gridRow"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// IsSelectable reports whether the seat can be offered to a customer.
func (s Seat) IsSelectable(includeWheelchair bool) bool {
	switch s.Status {
	case StatusAvailable:
		return true
	case StatusWheelchair:
		return includeWheelchair
	default:
		return false
	}
}

// SeatRow groups the seats sharing a row number, ordered by GridX.
type SeatRow struct {
	RowNumber int    `json:"rowNumber"`
	GridIndex int    `json:"gridIndex"`
	Seats     []Seat `json:"seats"`
}

// Extent returns the smallest and largest GridX in the row.
func (r SeatRow) Extent() (int, int) {
	if len(r.Seats) == 0 {
		return 0, 0
	}
	return r.Seats[0].GridX, r.Seats[len(r.Seats)-1].GridX
}

type Bounds struct {
	MinGridX   int `json:"minGridX"`
	MaxGridX   int `json:"maxGridX"`
	MinGridRow int `json:"minGridRow"`
	MaxGridRow int `json:"maxGridRow"`
}

// SeatMap is a snapshot of one screening's seats. It is built once by
// NewSeatMap and never modified afterwards; accessors hand out copies.
type SeatMap struct {
	seats    []Seat
	rows     map[int]SeatRow
	rowOrder []int
	bounds   Bounds
}

// NewSeatMap sorts the seats by (GridRow, GridX), groups them by row number
// and computes the bounding box.
func NewSeatMap(seats []Seat) *SeatMap {
	sorted := make([]Seat, len(seats))
	for i, s := range seats {
		s.Metadata = maps.Clone(s.Metadata)
		sorted[i] = s
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].GridRow != sorted[j].GridRow {
			return sorted[i].GridRow < sorted[j].GridRow
		}
		return sorted[i].GridX < sorted[j].GridX
	})

	m := &SeatMap{seats: sorted, rows: make(map[int]SeatRow)}
	for i, s := range sorted {
		row, ok := m.rows[s.RowNumber]
		if !ok {
			row = SeatRow{RowNumber: s.RowNumber, GridIndex: s.GridRow}
			m.rowOrder = append(m.rowOrder, s.RowNumber)
		}
		row.Seats = append(row.Seats, s)
		m.rows[s.RowNumber] = row

		if i == 0 {
			m.bounds = Bounds{MinGridX: s.GridX, MaxGridX: s.GridX, MinGridRow: s.GridRow, MaxGridRow: s.GridRow}
			continue
		}
		m.bounds.MinGridX = min(m.bounds.MinGridX, s.GridX)
		m.bounds.MaxGridX = max(m.bounds.MaxGridX, s.GridX)
		m.bounds.MinGridRow = min(m.bounds.MinGridRow, s.GridRow)
		m.bounds.MaxGridRow = max(m.bounds.MaxGridRow, s.GridRow)
	}
	// a row number can span several grid rows in odd layouts, keep each bucket ordered by GridX
	for n, row := range m.rows {
		sort.SliceStable(row.Seats, func(i, j int) bool { return row.Seats[i].GridX < row.Seats[j].GridX })
		m.rows[n] = row
	}
	return m
}

func (m *SeatMap) Len() int {
	return len(m.seats)
}

func (m *SeatMap) Seats() []Seat {
	return append([]Seat(nil), m.seats...)
}

func (m *SeatMap) Bounds() Bounds {
	return m.bounds
}

// Row returns a copy of the row bucket for the given row number.
func (m *SeatMap) Row(rowNumber int) (SeatRow, bool) {
	row, ok := m.rows[rowNumber]
	if !ok {
		return SeatRow{}, false
	}
	row.Seats = append([]Seat(nil), row.Seats...)
	return row, true
}

// RowNumbers lists row numbers in the order rows first appear in the
// (GridRow, GridX) ordering, i.e. front of the hall first.
func (m *SeatMap) RowNumbers() []int {
	return append([]int(nil), m.rowOrder...)
}

// AvailableSeats returns the seats selectable under the wheelchair policy.
func (m *SeatMap) AvailableSeats(includeWheelchair bool) []Seat {
	var out []Seat
	for _, s := range m.seats {
		if s.IsSelectable(includeWheelchair) {
			out = append(out, s)
		}
	}
	return out
}

// CountByStatus tallies seats per status.
func (m *SeatMap) CountByStatus() map[SeatStatus]int {
	counts := make(map[SeatStatus]int)
	for _, s := range m.seats {
		counts[s.Status]++
	}
	return counts
}
