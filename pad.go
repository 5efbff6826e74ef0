package tilefix

import (
	"image"

	"golang.org/x/image/draw"
)

// Pad returns a copy of the tileset `src` where every tile has a 1px halo
// duplicating its own edge pixels. If the tileset had spacing, the colour of
// the spacing next to each tile is kept beyond the halo.
//
// The result is (w + 2*columns) x (h + 2*rows) and starts fully transparent,
// so anything not covered by a tile stays transparent.
// `p` may be nil.
func Pad(src image.Image, cfg *Config, p Progress) (*image.NRGBA, error) {
	plan, err := NewPlan(src.Bounds(), cfg)
	if err != nil {
		return nil, err
	}
	return plan.Apply(src, p), nil
}

// Apply builds the padded image for `src`, which must have the bounds the
// plan was made for.
func (p *Plan) Apply(src image.Image, progress Progress) *image.NRGBA {
	if progress == nil {
		progress = nopProgress{}
	}

	in := toNRGBA(src)
	out := image.NewNRGBA(p.Bounds)

	for row := 0; row < p.Rows; row++ {
		for column := 0; column < p.Columns; column++ {
			for _, op := range p.Ops(row, column) {
				blockCopy(out, in, op)
			}
			progress.Tile(row, column)
		}
		progress.Row(row)
	}

	return out
}

// toNRGBA returns `in` as an NRGBA image with the same bounds. Other image
// types are converted once so every later copy is a plain byte copy.
func toNRGBA(in image.Image) *image.NRGBA {
	if n, ok := in.(*image.NRGBA); ok {
		return n
	}
	bnds := in.Bounds()
	out := image.NewNRGBA(bnds)
	draw.Draw(out, bnds, in, bnds.Min, draw.Src)
	return out
}

// blockCopy applies `op`, replacing destination pixels. The op is clipped to
// both images; parts that fall outside either are skipped.
func blockCopy(dst, src *image.NRGBA, op CopyOp) {
	r := op.Dst.Intersect(dst.Bounds())
	sp := op.Src.Add(r.Min.Sub(op.Dst.Min))

	// clip against the source, moving the destination rect along with it
	sr := image.Rectangle{Min: sp, Max: sp.Add(r.Size())}.Intersect(src.Bounds())
	if sr.Empty() {
		return
	}
	r = image.Rectangle{Min: r.Min.Add(sr.Min.Sub(sp)), Max: r.Min.Add(sr.Max.Sub(sp))}
	sp = sr.Min

	n := r.Dx() * 4
	for y := 0; y < r.Dy(); y++ {
		di := dst.PixOffset(r.Min.X, r.Min.Y+y)
		si := src.PixOffset(sp.X, sp.Y+y)
		copy(dst.Pix[di:di+n], src.Pix[si:si+n])
	}
}
