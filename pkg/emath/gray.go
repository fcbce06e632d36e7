package emath

// Helpers for the single channel grids (depth samples, masks) that flow
// through the pipeline. They are all *image.Gray, with Rect.Min at the origin.

import(
	"image"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

func NewGray(w, h int) *image.Gray {
	return image.NewGray(image.Rect(0, 0, w, h))
}

// GraySize returns the width and height of g.
func GraySize(g *image.Gray) (int, int) {
	return g.Rect.Dx(), g.Rect.Dy()
}

// MirrorInto writes a horizontally flipped copy of src into dst. The
// sensor faces the subject, so without this the output reads like a mirror
// held the wrong way round. Both grids must be the same size.
func MirrorInto(dst, src *image.Gray) {
	w, h := GraySize(src)
	for y:=0; y<h; y++ {
		srow := src.Pix[y*src.Stride : y*src.Stride+w]
		drow := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x:=0; x<w; x++ {
			drow[x] = srow[w-x-1]
		}
	}
}

// CopyInto copies src into dst, row by row; both must be the same size.
func CopyInto(dst, src *image.Gray) {
	w, h := GraySize(src)
	for y:=0; y<h; y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+w], src.Pix[y*src.Stride:y*src.Stride+w])
	}
}

// Resample scales src to w x h with bilinear interpolation.
func Resample(src *image.Gray, w, h int) *image.Gray {
	out := resize.Resize(uint(w), uint(h), src, resize.Bilinear)
	if g, ok := out.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}

	// resize hands back whatever it likes; normalize to a zero-origin Gray
	g := NewGray(w, h)
	draw.Draw(g, g.Rect, out, out.Bounds().Min, draw.Src)
	return g
}
