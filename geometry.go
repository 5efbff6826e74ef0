package tilefix

import (
	"image"
)

// DetermineCount returns how many tiles of `tile` px fit along `total` px,
// given a `margin` on both ends and `spacing` after each tile.
// A tile that starts inside the extent counts even if it would run past the
// end; the source is trusted to match its geometry.
func DetermineCount(total, tile, margin, spacing int) int {
	if tile+spacing <= 0 {
		// would never terminate
		return 0
	}

	count := 0
	remaining := total - margin*2
	for remaining > 0 {
		remaining -= tile
		remaining -= spacing
		count++
	}
	return count
}

// CopyOp copies the block of Dst.Size() whose top left corner in the source
// is Src into Dst. Blocks are never scaled.
type CopyOp struct {
	Dst image.Rectangle
	Src image.Point
}

// SrcRect returns the source rectangle read by the op.
func (o CopyOp) SrcRect() image.Rectangle {
	return image.Rectangle{Min: o.Src, Max: o.Src.Add(o.Dst.Size())}
}

// Plan is the layout of a padded tileset, worked out from the source
// bounds & tileset geometry alone.
type Plan struct {
	Config  Config
	Source  image.Rectangle
	Columns int
	Rows    int

	// bounds of the padded image
	Bounds image.Rectangle
}

// NewPlan lays out the padded tileset for a source image of the given bounds.
func NewPlan(src image.Rectangle, cfg *Config) (*Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	width := src.Dx()
	height := src.Dy()

	cols := DetermineCount(width, cfg.TileWidth, cfg.Margin, cfg.Spacing)
	rows := DetermineCount(height, cfg.TileHeight, cfg.Margin, cfg.Spacing)

	return &Plan{
		Config:  *cfg,
		Source:  src,
		Columns: cols,
		Rows:    rows,
		Bounds:  image.Rect(0, 0, width+cols*2, height+rows*2),
	}, nil
}

// Tiles returns the number of tiles in the grid.
func (p *Plan) Tiles() int {
	return p.Columns * p.Rows
}

// SourceTile returns the rectangle of tile (row, column) in the source image.
func (p *Plan) SourceTile(row, column int) image.Rectangle {
	sx := p.Source.Min.X + p.Config.Margin + column*(p.Config.TileWidth+p.Config.Spacing)
	sy := p.Source.Min.Y + p.Config.Margin + row*(p.Config.TileHeight+p.Config.Spacing)
	return image.Rect(sx, sy, sx+p.Config.TileWidth, sy+p.Config.TileHeight)
}

// DestTile returns where tile (row, column) lands in the padded image, not
// including its halo. Each preceding tile in a row or column adds 2px.
func (p *Plan) DestTile(row, column int) image.Rectangle {
	s := p.SourceTile(row, column).Sub(p.Source.Min)
	return s.Add(image.Pt(2*column+1, 2*row+1))
}

// Ops returns the copies that build tile (row, column) in the padded image,
// in the order they must be applied. Later ops overwrite earlier ones.
func (p *Plan) Ops(row, column int) []CopyOp {
	s := p.SourceTile(row, column)
	d := p.DestTile(row, column)
	spacing := p.Config.Spacing

	ops := make([]CopyOp, 0, 9)

	// spacing colour, one strip per side just beyond the halo
	if spacing > 0 {
		ops = append(ops,
			CopyOp{ // left
				Dst: image.Rect(d.Min.X-spacing-1, d.Min.Y, d.Min.X-spacing, d.Max.Y),
				Src: image.Pt(s.Min.X-spacing, s.Min.Y),
			},
			CopyOp{ // right
				Dst: image.Rect(d.Max.X+spacing, d.Min.Y, d.Max.X+spacing+1, d.Max.Y),
				Src: image.Pt(s.Max.X+spacing-1, s.Min.Y),
			},
			CopyOp{ // top
				Dst: image.Rect(d.Min.X, d.Min.Y-spacing-1, d.Max.X, d.Min.Y-spacing),
				Src: image.Pt(s.Min.X, s.Min.Y-spacing),
			},
			CopyOp{ // bottom
				Dst: image.Rect(d.Min.X, d.Max.Y+spacing, d.Max.X, d.Max.Y+spacing+1),
				Src: image.Pt(s.Min.X, s.Max.Y+spacing-1),
			},
		)
	}

	// halo: the whole tile shifted 1px each way, the tile itself covers all
	// but the outermost row / column afterwards
	for _, shift := range []image.Point{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		ops = append(ops, CopyOp{Dst: d.Add(shift), Src: s.Min})
	}

	ops = append(ops, CopyOp{Dst: d, Src: s.Min})
	return ops
}

// Clipped returns true if some tile of the grid reads outside the source
// image. This happens when the geometry doesn't match the image exactly;
// the missing pixels stay transparent.
func (p *Plan) Clipped() bool {
	if p.Tiles() == 0 {
		return false
	}
	last := p.SourceTile(p.Rows-1, p.Columns-1)
	return !last.In(p.Source)
}
