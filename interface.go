package tilefix

import (
	"io"
)

// Progress is told about each tile as it is padded
type Progress interface {
	// Tile is called once a tile at (row, column) has been written
	Tile(row, column int)

	// Row is called after the last tile of a row
	Row(row int)
}

// nopProgress ignores everything
type nopProgress struct{}

func (nopProgress) Tile(row, column int) {}
func (nopProgress) Row(row int)          {}

// Markers writes an "x" per tile and a newline per row to `w`.
type Markers struct {
	w io.Writer
}

// NewMarkers returns a Progress that prints a grid of markers to `w`.
func NewMarkers(w io.Writer) *Markers {
	return &Markers{w: w}
}

func (m *Markers) Tile(row, column int) {
	io.WriteString(m.w, "x")
}

func (m *Markers) Row(row int) {
	io.WriteString(m.w, "\n")
}
