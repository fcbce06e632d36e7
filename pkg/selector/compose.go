package selector

import(
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/abworrall/temporalmask/pkg/framestore"
)

var(
	ErrNotLoaded = errors.New("set is not loaded")
)

type Options struct {
	Reverse         bool
	Ghost           bool
	GhostThreshold  uint8   // raw depth samples above this get highlighted
	GhostBoost      uint8   // added to each color channel, clamped
	Workers         int     // rows are split over this many goroutines when >1
}

// Inputs are the per tick grids, all at the output size.
type Inputs struct {
	Mask       *image.Gray  // selects frames (usually the blurred mask)
	Faded      *image.Gray  // shown in place of the frames while the envelope is below 1
	Raw        *image.Gray  // depth samples, for the ghost; may be nil if Ghost is off
}

// Compose fills dst from the frames of a loaded set. Each pixel takes the
// color of the frame its mask value selects, at the same position, blended
// towards half the faded mask as mult drops from 1 to 0. Ghost highlights are
// added last.
func Compose(dst *image.RGBA, set *framestore.Set, t *Table, in Inputs, mult float64, opts Options) error {
	if !set.Loaded() {
		return fmt.Errorf("compose %s: %w", set.Path, ErrNotLoaded)
	}

	size := dst.Rect.Size()
	bufs := make([][]uint8, len(set.Layers))
	offsets := make([]int, len(set.Layers))
	frameSize := 0
	for i, l := range set.Layers {
		fb := l.Buffer()
		if fb == nil {
			return fmt.Errorf("compose %s: %w", set.Path, ErrNotLoaded)
		} else if fb.Size() != size {
			return fmt.Errorf("compose %s: frames %v, output %v: %w", set.Path, fb.Size(), size, framestore.ErrDimensionMismatch)
		}
		bufs[i] = fb.Pix
		offsets[i] = l.FrameOffset()
		frameSize = fb.FrameSize()
	}
	grids := []*image.Gray{in.Mask, in.Faded}
	if opts.Ghost {
		grids = append(grids, in.Raw)
	}
	for _, g := range grids {
		if g == nil {
			return fmt.Errorf("compose: missing input grid")
		} else if g.Rect.Size() != size {
			return fmt.Errorf("compose: grid %v, output %v: %w", g.Rect.Size(), size, framestore.ErrDimensionMismatch)
		}
	}

	r := rowRenderer{
		dst:       dst,
		table:     t,
		in:        in,
		bufs:      bufs,
		offsets:   offsets,
		frameSize: frameSize,
		weight:    weight(mult),
		opts:      opts,
	}

	if opts.Workers <= 1 {
		for y:=0; y<size.Y; y++ {
			r.row(y)
		}
		return nil
	}

	var wg sync.WaitGroup
	rowsChan := make(chan int, size.Y)

	for i:=0; i<opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range rowsChan {
				r.row(y)
			}
		}()
	}

	for y:=0; y<size.Y; y++ {
		rowsChan<- y
	}
	close(rowsChan)
	wg.Wait()

	return nil
}

// weight is the multiplier in 1/256ths.
func weight(mult float64) int {
	if mult <= 0 { return 0 }
	if mult >= 1 { return 256 }
	return int(mult*256 + 0.5)
}

// blend is frame*w + mask*(1-w)*0.5, w in 1/256ths, rounded.
func blend(frame, mask uint8, w int) uint8 {
	return uint8((2*int(frame)*w + int(mask)*(256-w) + 256) / 512)
}

type rowRenderer struct {
	dst        *image.RGBA
	table      *Table
	in          Inputs
	bufs     [][]uint8
	offsets    []int
	frameSize   int
	weight      int
	opts        Options
}

// row renders one output row. Rows share nothing writable, so they can be
// done in any order, on any goroutine.
func (r *rowRenderer)row(y int) {
	w := r.dst.Rect.Dx()
	out := r.dst.Pix[y*r.dst.Stride : y*r.dst.Stride + w*4]
	mask := r.in.Mask.Pix[y*r.in.Mask.Stride:]
	faded := r.in.Faded.Pix[y*r.in.Faded.Stride:]

	var raw []uint8
	if r.opts.Ghost {
		raw = r.in.Raw.Pix[y*r.in.Raw.Stride:]
	}

	for x:=0; x<w; x++ {
		layer, frame := r.table.Frame(mask[x], r.offsets, r.opts.Reverse)
		src := r.bufs[layer][frame*r.frameSize + (y*w + x)*framestore.Channels:]
		o := out[x*4 : x*4+4]

		if r.weight == 256 {
			o[0], o[1], o[2] = src[0], src[1], src[2]
		} else {
			m := faded[x]
			o[0] = blend(src[0], m, r.weight)
			o[1] = blend(src[1], m, r.weight)
			o[2] = blend(src[2], m, r.weight)
		}
		o[3] = 0xff

		if raw != nil && raw[x] > r.opts.GhostThreshold {
			for c:=0; c<3; c++ {
				o[c] = uint8(min(int(o[c]) + int(r.opts.GhostBoost), 255))
			}
		}
	}
}
