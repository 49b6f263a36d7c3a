// Package selection ranks seats and seat blocks by how close they sit to the
// centre of the hall.
package selection

import (
	"math"
	"sort"

	"github.com/paologalligit/cinema-seat-advisor/entities"
)

const (
	DefaultSingleTopN = 5
	DefaultBlockTopN  = 3
)

type ScoringConfig struct {
	RowWeight         float64
	ColumnWeight      float64
	IncludeWheelchair bool
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{RowWeight: 0.5, ColumnWeight: 0.5}
}

// Selector scores the seats of a single SeatMap snapshot.
type Selector struct {
	seatMap *entities.SeatMap
	config  ScoringConfig

	columnCenter, rowCenter       float64
	columnHalfRange, rowHalfRange float64
}

func New(seatMap *entities.SeatMap, config ScoringConfig) *Selector {
	b := seatMap.Bounds()
	return &Selector{
		seatMap:         seatMap,
		config:          config,
		columnCenter:    float64(b.MinGridX+b.MaxGridX) / 2,
		rowCenter:       float64(b.MinGridRow+b.MaxGridRow) / 2,
		columnHalfRange: math.Max(float64(b.MaxGridX-b.MinGridX)/2, 1),
		rowHalfRange:    math.Max(float64(b.MaxGridRow-b.MinGridRow)/2, 1),
	}
}

// Score is the weighted centrality of a seat, each component in [0,1].
func (s *Selector) Score(seat entities.Seat) float64 {
	column := centrality(float64(seat.GridX), s.columnCenter, s.columnHalfRange)
	row := centrality(float64(seat.GridRow), s.rowCenter, s.rowHalfRange)
	return column*s.config.ColumnWeight + row*s.config.RowWeight
}

func centrality(value, center, halfRange float64) float64 {
	c := 1 - math.Abs(value-center)/halfRange
	return math.Min(math.Max(c, 0), 1)
}

// BestSingleSeats returns up to topN single-seat suggestions ordered by score,
// then by horizontal and vertical distance from the centre.
func (s *Selector) BestSingleSeats(topN int) []entities.SeatBlockSuggestion {
	if topN <= 0 {
		return nil
	}
	type scored struct {
		seat   entities.Seat
		score  float64
		dx, dy float64
	}
	var candidates []scored
	for _, seat := range s.seatMap.AvailableSeats(s.config.IncludeWheelchair) {
		candidates = append(candidates, scored{
			seat:  seat,
			score: s.Score(seat),
			dx:    math.Abs(float64(seat.GridX) - s.columnCenter),
			dy:    math.Abs(float64(seat.GridRow) - s.rowCenter),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.dx != b.dx {
			return a.dx < b.dx
		}
		return a.dy < b.dy
	})

	var out []entities.SeatBlockSuggestion
	for _, c := range candidates[:min(topN, len(candidates))] {
		out = append(out, entities.SeatBlockSuggestion{
			RowNumber:     c.seat.RowNumber,
			SeatNumbers:   []int{c.seat.SeatNumber},
			Labels:        []string{c.seat.Label},
			GridPositions: []int{c.seat.GridX},
			Score:         c.score,
		})
	}
	return out
}

// BestBlocks returns up to topN windows of size adjacent available seats,
// pooled across rows and ordered by mean seat score.
func (s *Selector) BestBlocks(size, topN int) []entities.SeatBlockSuggestion {
	if size <= 0 || topN <= 0 {
		return nil
	}
	var windows []entities.SeatBlockSuggestion
	for _, rowNumber := range s.seatMap.RowNumbers() {
		row, _ := s.seatMap.Row(rowNumber)
		var available []entities.Seat
		for _, seat := range row.Seats {
			if seat.IsSelectable(s.config.IncludeWheelchair) {
				available = append(available, seat)
			}
		}
		for _, run := range consecutiveRuns(available) {
			for start := 0; start+size <= len(run); start++ {
				windows = append(windows, s.block(rowNumber, run[start:start+size]))
			}
		}
	}
	sort.SliceStable(windows, func(i, j int) bool { return windows[i].Score > windows[j].Score })
	return windows[:min(topN, len(windows))]
}

// consecutiveRuns splits seats (ordered by GridX) wherever GridX jumps by more than one.
func consecutiveRuns(seats []entities.Seat) [][]entities.Seat {
	var runs [][]entities.Seat
	var current []entities.Seat
	for _, seat := range seats {
		if len(current) > 0 && seat.GridX-current[len(current)-1].GridX != 1 {
			runs = append(runs, current)
			current = nil
		}
		current = append(current, seat)
	}
	if len(current) > 0 {
		runs = append(runs, current)
	}
	return runs
}

func (s *Selector) block(rowNumber int, seats []entities.Seat) entities.SeatBlockSuggestion {
	suggestion := entities.SeatBlockSuggestion{RowNumber: rowNumber}
	total := 0.0
	for _, seat := range seats {
		suggestion.SeatNumbers = append(suggestion.SeatNumbers, seat.SeatNumber)
		suggestion.Labels = append(suggestion.Labels, seat.Label)
		suggestion.GridPositions = append(suggestion.GridPositions, seat.GridX)
		total += s.Score(seat)
	}
	suggestion.Score = total / float64(len(seats))
	return suggestion
}
