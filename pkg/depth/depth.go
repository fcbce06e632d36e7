// Package depth provides depth frames: 8-bit grids where nearer is brighter
// and 0 means no reading.
package depth

import(
	"image"
)

// DefaultMaxDist is the far limit, in millimetres, for raw distance frames.
const DefaultMaxDist = 4000

// A Source is polled once per render tick.
type Source interface {
	IsFrameNew() bool      // whether Frame has changed since it was last read
	Frame() *image.Gray
}

// A Tilter is a source whose sensor can be angled.
type Tilter interface {
	SetTilt(degrees float64) error
}

// FromGray16 converts raw sensor distances (0 for no reading) into a depth
// frame, with maxDist and beyond as the farthest.
func FromGray16(src *image.Gray16, maxDist uint16) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	if maxDist == 0 {
		return dst
	}

	for y:=0; y<b.Dy(); y++ {
		for x:=0; x<b.Dx(); x++ {
			d := src.Gray16At(b.Min.X + x, b.Min.Y + y).Y
			if d == 0 || d >= maxDist {
				continue
			}
			dst.Pix[y*dst.Stride + x] = uint8(255 - uint32(d)*255/uint32(maxDist))
		}
	}
	return dst
}
