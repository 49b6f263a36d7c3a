// Package seatmap turns seat-layout markup into an entities.SeatMap.
//
// The same parser handles a rendered booking page, the bare svg element
// extracted by a browser, and the minimal document the fetcher synthesizes
// from the booking API.
package seatmap

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/paologalligit/cinema-seat-advisor/constant"
	"github.com/paologalligit/cinema-seat-advisor/entities"
)

var descriptionPattern = regexp.MustCompile(`(?i)row:\s*(\d+)\s+seat:\s*(\d+)\s*-\s*([A-Za-z ]+)`)

// ParseError means the markup has no seat-layout container at all.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("seat map parse error: %s: %v", e.Reason, e.Err)
	}
	return "seat map parse error: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

type Parser struct {
	logger *zap.Logger
}

func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// Parse builds a SeatMap from markup. Seats with an unreadable description,
// position or label are skipped with a warning.
func (p *Parser) Parse(markup string) (*entities.SeatMap, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, &ParseError{Reason: "unreadable markup", Err: err}
	}

	if doc.Find(constant.SeatmapContainerSelector).Length() == 0 {
		return nil, &ParseError{Reason: "no " + constant.SeatmapContainerSelector + " element"}
	}

	scope := doc.Selection
	if viewport := doc.Find(constant.SeatmapViewportSelector).First(); viewport.Length() > 0 {
		scope = viewport
	}

	var seats []entities.Seat
	scope.Find(constant.SeatElementSelector).Each(func(_ int, s *goquery.Selection) {
		seat, err := parseSeat(s)
		if err != nil {
			p.logger.Warn("skipping seat", zap.Error(err))
			return
		}
		seats = append(seats, seat)
	})

	return entities.NewSeatMap(seats), nil
}

func parseSeat(s *goquery.Selection) (entities.Seat, error) {
	description, _ := s.Attr(constant.SeatDescriptionAttr)
	position, ok := s.Attr(constant.SeatPositionAttr)
	if !ok {
		return entities.Seat{}, fmt.Errorf("seat %q has no position attribute", description)
	}
	text := s.Find("text").First()
	if text.Length() == 0 {
		return entities.Seat{}, fmt.Errorf("seat %q has no label", description)
	}

	match := descriptionPattern.FindStringSubmatch(description)
	if match == nil {
		return entities.Seat{}, fmt.Errorf("unrecognized seat description %q", description)
	}
	row, err := strconv.Atoi(match[1])
	if err != nil {
		return entities.Seat{}, fmt.Errorf("row in %q: %w", description, err)
	}
	number, err := strconv.Atoi(match[2])
	if err != nil {
		return entities.Seat{}, fmt.Errorf("seat in %q: %w", description, err)
	}

	gridX, gridRow, err := parsePosition(position)
	if err != nil {
		return entities.Seat{}, err
	}

	metadata := make(map[string]string)
	for _, node := range s.Nodes {
		for _, attr := range node.Attr {
			if attr.Key == constant.SeatDescriptionAttr || attr.Key == constant.SeatPositionAttr {
				continue
			}
			metadata[attr.Key] = attr.Val
		}
	}

	return entities.Seat{
		RowNumber:  row,
		SeatNumber: number,
		Label:      strings.TrimSpace(text.Text()),
		Status:     entities.StatusFromDescription(match[3]),
		GridX:      gridX,
		GridRow:    gridRow,
		Metadata:   metadata,
	}, nil
}

// parsePosition reads "section,grid_x,grid_row".
func parsePosition(value string) (int, int, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return 0, 0, fmt.Errorf("position %q does not have three parts", value)
	}
	var nums [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0, 0, fmt.Errorf("position %q: %w", value, err)
		}
		nums[i] = n
	}
	return nums[1], nums[2], nil
}
