// Package render draws seat map previews as PNG files.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/paologalligit/cinema-seat-advisor/entities"
)

var ErrEmptySeatMap = errors.New("cannot render seat map without seats")

var (
	availableColor   = color.RGBA{0x4C, 0xAF, 0x50, 0xFF}
	occupiedColor    = color.RGBA{0x7A, 0x7A, 0x7A, 0xFF}
	wheelchairColor  = color.RGBA{0x1E, 0x88, 0xE5, 0xFF}
	unknownColor     = color.RGBA{0x9E, 0x9E, 0x9E, 0xFF}
	recommendedColor = color.RGBA{0xFF, 0x98, 0x00, 0xFF}
	backgroundColor  = color.RGBA{0x11, 0x12, 0x1A, 0xFF}
	frameColor       = color.RGBA{0x0F, 0x17, 0x2A, 0xFF}
	highlightFrame   = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
)

const frameWidth = 2

type Renderer interface {
	Render(seatMap *entities.SeatMap, suggestion entities.SeatBlockSuggestion) (string, error)
}

type PNGRenderer struct {
	OutputDir string
	SeatSize  int
	SeatGap   int
	Margin    int
}

func NewPNGRenderer(outputDir string) *PNGRenderer {
	return &PNGRenderer{
		OutputDir: outputDir,
		SeatSize:  26,
		SeatGap:   6,
		Margin:    20,
	}
}

// Render draws every seat on its grid cell, highlights the suggested seats
// and returns the path of the written file.
func (r *PNGRenderer) Render(seatMap *entities.SeatMap, suggestion entities.SeatBlockSuggestion) (string, error) {
	if seatMap == nil || seatMap.Len() == 0 {
		return "", ErrEmptySeatMap
	}
	img := r.Draw(seatMap, suggestion)

	if err := os.MkdirAll(r.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("error creating render dir: %w", err)
	}
	path := filepath.Join(r.OutputDir, fmt.Sprintf("seatmap-%s.png", uuid.NewString()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating render file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("error encoding png: %w", err)
	}
	return path, nil
}

// Draw builds the preview image without touching the filesystem.
func (r *PNGRenderer) Draw(seatMap *entities.SeatMap, suggestion entities.SeatBlockSuggestion) *image.RGBA {
	b := seatMap.Bounds()
	width := r.dimension(b.MinGridX, b.MaxGridX)
	height := r.dimension(b.MinGridRow, b.MaxGridRow)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	highlighted := make(map[int]bool, len(suggestion.SeatNumbers))
	for _, n := range suggestion.SeatNumbers {
		highlighted[n] = true
	}

	for _, seat := range seatMap.Seats() {
		fill, outline := statusColor(seat.Status), frameColor
		if seat.RowNumber == suggestion.RowNumber && highlighted[seat.SeatNumber] {
			fill, outline = recommendedColor, highlightFrame
		}
		r.drawSeat(img, r.seatBox(b, seat), fill, outline)
	}
	return img
}

func (r *PNGRenderer) dimension(minValue, maxValue int) int {
	span := max(maxValue-minValue+1, 1)
	return r.Margin*2 + span*r.SeatSize + (span-1)*r.SeatGap
}

func (r *PNGRenderer) seatBox(b entities.Bounds, seat entities.Seat) image.Rectangle {
	col := seat.GridX - b.MinGridX
	row := seat.GridRow - b.MinGridRow
	x0 := r.Margin + col*(r.SeatSize+r.SeatGap)
	y0 := r.Margin + row*(r.SeatSize+r.SeatGap)
	return image.Rect(x0, y0, x0+r.SeatSize, y0+r.SeatSize)
}

func (r *PNGRenderer) drawSeat(img *image.RGBA, box image.Rectangle, fill, outline color.Color) {
	draw.Draw(img, box, image.NewUniform(outline), image.Point{}, draw.Src)
	inner := box.Inset(frameWidth)
	if !inner.Empty() {
		draw.Draw(img, inner, image.NewUniform(fill), image.Point{}, draw.Src)
	}
}

func statusColor(status entities.SeatStatus) color.Color {
	switch status {
	case entities.StatusAvailable:
		return availableColor
	case entities.StatusOccupied:
		return occupiedColor
	case entities.StatusWheelchair:
		return wheelchairColor
	default:
		return unknownColor
	}
}
