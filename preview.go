package tilefix

import (
	"image"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"
)

// Preview returns the padded image `in` magnified by `scale` with the
// tile grid of `plan` drawn over it: tiles in magenta, halos in cyan.
// Useful to check the geometry given actually matches the tileset.
func Preview(in image.Image, plan *Plan, scale int) image.Image {
	if scale < 1 {
		scale = 1
	}

	bnds := in.Bounds()
	big := resize.Resize(
		uint(bnds.Dx()*scale),
		uint(bnds.Dy()*scale),
		in,
		resize.NearestNeighbor, // keep pixels square, we want to see them
	)

	dc := gg.NewContextForImage(big)
	dc.SetLineWidth(1)

	outline := func(r image.Rectangle) {
		// +0.5 puts a 1px line on pixel centres
		dc.DrawRectangle(
			float64(r.Min.X*scale)+0.5,
			float64(r.Min.Y*scale)+0.5,
			float64(r.Dx()*scale)-1,
			float64(r.Dy()*scale)-1,
		)
	}

	for row := 0; row < plan.Rows; row++ {
		for column := 0; column < plan.Columns; column++ {
			d := plan.DestTile(row, column)

			outline(d.Inset(-1))
			dc.SetRGBA(0, 1, 1, 0.6)
			dc.Stroke()

			outline(d)
			dc.SetRGBA(1, 0, 1, 0.8)
			dc.Stroke()
		}
	}

	return dc.Image()
}

// WritePreview renders a preview of `in` and saves it as PNG to `fpath`
func WritePreview(fpath string, in image.Image, plan *Plan, scale int) error {
	_, err := WritePNG(fpath, Preview(in, plan, scale))
	return err
}
