package framestore

import(
	"image"

	"golang.org/x/image/draw"
)

// Channels is bytes per pixel in a FrameBuffer: RGBA, alpha always opaque.
const Channels = 4

// A FrameBuffer holds every frame of one sequence in a single allocation,
// frame after frame, each laid out like image.RGBA.Pix. It belongs to exactly
// one Layer (or one caller of Store.Load) and is never shared.
type FrameBuffer struct {
	Width      int
	Height     int
	FrameCount int
	Pix      []uint8
}

// BufferBytes is how much memory a sequence will need once loaded.
func BufferBytes(frameCount, w, h int) int64 {
	return int64(frameCount) * int64(w) * int64(h) * Channels
}

func NewFrameBuffer(frameCount, w, h int) *FrameBuffer {
	return &FrameBuffer{
		Width:      w,
		Height:     h,
		FrameCount: frameCount,
		Pix:        make([]uint8, BufferBytes(frameCount, w, h)),
	}
}

func (fb *FrameBuffer)FrameSize() int { return fb.Width * fb.Height * Channels }
func (fb *FrameBuffer)Bytes() int64   { return int64(len(fb.Pix)) }
func (fb *FrameBuffer)Size() image.Point { return image.Point{fb.Width, fb.Height} }

// Frame returns the bytes of frame i.
func (fb *FrameBuffer)Frame(i int) []uint8 {
	n := fb.FrameSize()
	return fb.Pix[i*n : (i+1)*n]
}

// FrameImage wraps frame i as an image.RGBA, sharing the buffer's memory.
func (fb *FrameBuffer)FrameImage(i int) *image.RGBA {
	return &image.RGBA{
		Pix:    fb.Frame(i),
		Stride: fb.Width * Channels,
		Rect:   image.Rect(0, 0, fb.Width, fb.Height),
	}
}

// put converts img into frame slot i. The caller has already checked the size.
func (fb *FrameBuffer)put(i int, img image.Image) {
	dst := fb.FrameImage(i)
	draw.Draw(dst, dst.Rect, img, img.Bounds().Min, draw.Src)

	for j:=3; j<len(dst.Pix); j+=Channels {
		dst.Pix[j] = 0xff
	}
}

// Release drops the pixel memory. The buffer is unusable afterwards.
func (fb *FrameBuffer)Release() {
	fb.Pix = nil
	fb.FrameCount = 0
}
