package fetcher

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	"github.com/paologalligit/cinema-seat-advisor/client"
	"github.com/paologalligit/cinema-seat-advisor/entities"
)

// APIStrategy rebuilds the seat layout from the booking API's seat plan and
// seat status lookups.
type APIStrategy struct {
	client client.Extractor
}

func NewAPIStrategy(c client.Extractor) *APIStrategy {
	return &APIStrategy{client: c}
}

func (a *APIStrategy) Name() string { return "api" }

func (a *APIStrategy) Fetch(ctx context.Context, req Request) (string, error) {
	pres, err := a.client.CallPresentation(ctx, req.PresentationID)
	if err != nil {
		return "", fmt.Errorf("presentation %d: %w", req.PresentationID, err)
	}
	if pres.Presentation == nil {
		return "", errors.New("presentation metadata missing from response")
	}
	meta := pres.Presentation

	plan, err := a.client.CallSeatplan(ctx, int(meta.VenueId), int(meta.SeatplanId))
	if err != nil {
		return "", fmt.Errorf("seat plan: %w", err)
	}
	status, err := a.client.CallSeatStatus(ctx, req.PresentationID, int(meta.VenueTypeId))
	if err != nil {
		return "", fmt.Errorf("seat status: %w", err)
	}

	markup := BuildSyntheticMarkup(plan, status.Seats)
	if markup == "" {
		return "", ErrEmptySeatplan
	}
	return markup, nil
}

// BuildSyntheticMarkup emits one seat element per plan seat, shaped like the
// booking page's own seat map. It returns "" for a plan without sections.
func BuildSyntheticMarkup(plan *entities.Seatplan, statuses map[string]int) string {
	if plan == nil || len(plan.Sections) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<svg id="svg-seatmap"><g class="svg-pan-zoom_viewport">`)
	for _, sectionId := range sortedKeys(plan.Sections) {
		section := plan.Sections[sectionId]
		for _, groupId := range sortedKeys(section.Groups) {
			group := section.Groups[groupId]
			for _, rowId := range sortedKeys(group.Rows) {
				row := group.Rows[rowId]
				rowName := orDefault(row.Name, rowId)
				for _, seatKey := range sortedKeys(row.Seats) {
					label := orDefault(row.Seats[seatKey].Name, seatKey)
					uid := sectionId + "_" + seatKey + "_" + rowId
					description := fmt.Sprintf("row: %s seat: %s - %s", rowName, label, statusText(statuses, uid))
					fmt.Fprintf(&b, `<g s="%s" aria-description="%s"><text>%s</text></g>`,
						html.EscapeString(sectionId+","+seatKey+","+rowId),
						html.EscapeString(description),
						html.EscapeString(label),
					)
				}
			}
		}
	}
	b.WriteString(`</g></svg>`)
	return b.String()
}

func statusText(statuses map[string]int, uid string) string {
	if code, ok := statuses[uid]; ok && code != 0 {
		return "Occupied"
	}
	return "Available"
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// sortedKeys orders numeric keys numerically and everything else lexically after them.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}
