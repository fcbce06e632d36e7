package depth

import(
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/abworrall/temporalmask/pkg/emath"
	"github.com/abworrall/temporalmask/pkg/framestore"
)

// Replay plays back a recorded sequence of depth images, looping, one frame
// per poll. Frames are decoded as they are needed. 16-bit recordings hold
// raw sensor distances, and are converted with FromGray16 using MaxDist.
type Replay struct {
	Source  framestore.FrameSource
	MaxDist uint16
	paths   []string
	next    int
	frame   *image.Gray
}

func NewReplay(src framestore.FrameSource, id string) (*Replay, error) {
	paths, err := src.Enumerate(id)
	if err != nil {
		return nil, fmt.Errorf("replay '%s': %v", id, err)
	} else if len(paths) == 0 {
		return nil, fmt.Errorf("replay '%s': %w", id, framestore.ErrNoFrames)
	}
	return &Replay{Source:src, MaxDist:DefaultMaxDist, paths:paths}, nil
}

func (r *Replay)Len() int { return len(r.paths) }

// IsFrameNew decodes the next recorded frame. A frame that fails to decode
// is skipped.
func (r *Replay)IsFrameNew() bool {
	p := r.paths[r.next]
	r.next = (r.next + 1) % len(r.paths)

	img, err := r.Source.Decode(p)
	if err != nil {
		return false
	}
	if g16, ok := img.(*image.Gray16); ok {
		r.frame = FromGray16(g16, r.MaxDist)
	} else {
		r.frame = toGray(img)
	}
	return true
}

func (r *Replay)Frame() *image.Gray { return r.frame }

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	g := emath.NewGray(b.Dx(), b.Dy())
	draw.Draw(g, g.Rect, img, b.Min, draw.Src)
	return g
}
