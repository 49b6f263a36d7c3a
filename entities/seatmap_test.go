package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFromDescription(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected SeatStatus
	}{
		{name: "available", text: "row: 1 seat: 5 - Available", expected: StatusAvailable},
		{name: "occupied", text: "row: 1 seat: 6 - OCCUPIED", expected: StatusOccupied},
		{name: "wheelchair", text: "row: 2 seat: 10 - Wheelchair", expected: StatusWheelchair},
		{name: "wheelchair wins over available", text: "Available wheelchair space", expected: StatusWheelchair},
		{name: "available wins over occupied", text: "occupied? no, available", expected: StatusAvailable},
		{name: "nothing matched", text: "row: 1 seat: 7 - Broken", expected: StatusUnknown},
		{name: "empty", text: "", expected: StatusUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, StatusFromDescription(tc.text))
		})
	}
}

func TestNewSeatMap_BoundsAndRows(t *testing.T) {
	seats := []Seat{
		{RowNumber: 2, SeatNumber: 3, GridX: 7, GridRow: 4, Status: StatusAvailable},
		{RowNumber: 1, SeatNumber: 2, GridX: 5, GridRow: 3, Status: StatusOccupied},
		{RowNumber: 2, SeatNumber: 1, GridX: 2, GridRow: 4, Status: StatusAvailable},
		{RowNumber: 1, SeatNumber: 1, GridX: 3, GridRow: 3, Status: StatusWheelchair},
	}

	m := NewSeatMap(seats)

	assert.Equal(t, Bounds{MinGridX: 2, MaxGridX: 7, MinGridRow: 3, MaxGridRow: 4}, m.Bounds())
	assert.Equal(t, []int{1, 2}, m.RowNumbers())

	total := 0
	for _, n := range m.RowNumbers() {
		row, ok := m.Row(n)
		require.True(t, ok)
		total += len(row.Seats)
		for i := 1; i < len(row.Seats); i++ {
			assert.Less(t, row.Seats[i-1].GridX, row.Seats[i].GridX)
		}
	}
	assert.Equal(t, len(seats), total)

	ordered := m.Seats()
	assert.Equal(t, 1, ordered[0].SeatNumber)
	assert.Equal(t, 3, ordered[len(ordered)-1].SeatNumber)

	row, _ := m.Row(2)
	assert.Equal(t, 4, row.GridIndex)
	minX, maxX := row.Extent()
	assert.Equal(t, 2, minX)
	assert.Equal(t, 7, maxX)
}

func TestNewSeatMap_Empty(t *testing.T) {
	m := NewSeatMap(nil)
	assert.Equal(t, Bounds{}, m.Bounds())
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.RowNumbers())
}

func TestSeatMap_IsolatedFromInput(t *testing.T) {
	seats := []Seat{{RowNumber: 1, SeatNumber: 1, Metadata: map[string]string{"class": "x"}}}
	m := NewSeatMap(seats)
	seats[0].SeatNumber = 99
	seats[0].Metadata["class"] = "y"

	got := m.Seats()
	assert.Equal(t, 1, got[0].SeatNumber)
	assert.Equal(t, "x", got[0].Metadata["class"])

	got[0].SeatNumber = 42
	assert.Equal(t, 1, m.Seats()[0].SeatNumber)
}

func TestSeatMap_AvailableSeats(t *testing.T) {
	m := NewSeatMap([]Seat{
		{RowNumber: 1, SeatNumber: 5, GridX: 1, Status: StatusAvailable},
		{RowNumber: 1, SeatNumber: 6, GridX: 2, Status: StatusOccupied},
		{RowNumber: 1, SeatNumber: 7, GridX: 3, Status: StatusAvailable},
		{RowNumber: 2, SeatNumber: 10, GridX: 0, GridRow: 1, Status: StatusWheelchair},
		{RowNumber: 2, SeatNumber: 11, GridX: 1, GridRow: 1, Status: StatusUnknown},
	})

	numbers := func(seats []Seat) []int {
		var out []int
		for _, s := range seats {
			out = append(out, s.SeatNumber)
		}
		return out
	}

	assert.ElementsMatch(t, []int{5, 7}, numbers(m.AvailableSeats(false)))
	assert.ElementsMatch(t, []int{5, 7, 10}, numbers(m.AvailableSeats(true)))
	assert.Equal(t, 1, m.CountByStatus()[StatusUnknown])
}

func TestFlexInt(t *testing.T) {
	var p PresentationResponse
	err := json.Unmarshal([]byte(`{"presentation":{"venueId":12,"seatplanId":"34","venueTypeId":"5"}}`), &p)
	require.NoError(t, err)
	require.NotNil(t, p.Presentation)
	assert.Equal(t, FlexInt(12), p.Presentation.VenueId)
	assert.Equal(t, FlexInt(34), p.Presentation.SeatplanId)
	assert.Equal(t, FlexInt(5), p.Presentation.VenueTypeId)

	err = json.Unmarshal([]byte(`{"presentation":{"venueId":"abc","seatplanId":1,"venueTypeId":1}}`), &p)
	assert.Error(t, err)
}

func TestSeatplanNames(t *testing.T) {
	var plan Seatplan
	err := json.Unmarshal([]byte(`{"S":{"1":{"G":{"1":{"R":{"7":{"n":3,"S":{"20":{"n":"12"},"21":{}}}}}}}}}`), &plan)
	require.NoError(t, err)
	row := plan.Sections["1"].Groups["1"].Rows["7"]
	assert.Equal(t, "3", row.Name)
	assert.Equal(t, "12", row.Seats["20"].Name)
	assert.Equal(t, "", row.Seats["21"].Name)
}

func TestTimeOfDay(t *testing.T) {
	tod, err := NewTimeOfDay(9, 5)
	require.NoError(t, err)
	assert.Equal(t, "09:05", tod.String())

	_, err = NewTimeOfDay(24, 0)
	assert.Error(t, err)
}
