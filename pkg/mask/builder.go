// Package mask turns depth sensor frames into a presence mask: a grey
// image that springs to full brightness wherever someone stands inside the
// distance window, and fades slowly after they leave.
package mask

import(
	"errors"
	"fmt"
	"image"

	"github.com/abworrall/temporalmask/pkg/blur"
	"github.com/abworrall/temporalmask/pkg/emath"
)

// MaxDetail is the detail value of a fully lit pixel (255 mask levels, each
// split into 255 sub-levels).
const MaxDetail = 255 * 255

var(
	ErrThresholdInversion = errors.New("near threshold must be greater than far threshold")
	ErrDimensionMismatch  = errors.New("depth frame size differs from mask size")
)

// Config holds the tunables for a Builder. Depth samples are 8-bit, nearer
// is brighter, so Near is the larger threshold.
type Config struct {
	Near        int        // samples at or above this map to full presence
	Far         int        // samples at or below this map to none
	FadeRate    int        // detail units lost per tick; 255 is one mask level

	Mirror      bool       // flip the depth frame left-right first
	Resample    bool       // scale depth frames to the mask size; otherwise a size mismatch is an error

	BlurRadius  int        // box blur radius for the blurred mask
	BlurPasses  int        // if >0, use this many progressive passes instead of the box blur

	Decay       DecayFunc  // nil means DecayLinear
}

func (c Config)Validate() error {
	if c.Near <= c.Far {
		return fmt.Errorf("near %d, far %d: %w", c.Near, c.Far, ErrThresholdInversion)
	}
	if c.Far < 0 || c.Near > 255 {
		return fmt.Errorf("thresholds [%d,%d] outside [0,255]", c.Far, c.Near)
	}
	if c.FadeRate < 0 {
		return fmt.Errorf("fade rate %d is negative", c.FadeRate)
	}
	return nil
}

// A Builder owns the mask state that persists from tick to tick.
type Builder struct {
	Config
	Width    int
	Height   int

	detail   []uint16      // hidden accumulator; mask == detail/255
	raw      *image.Gray   // this tick's depth samples, mirrored and resampled
	mask     *image.Gray
	blurred  *image.Gray

	lut      [256]uint16   // depth sample -> detail value, for the current thresholds
	blurrer  *blur.Blurrer
}

// NewBuilder makes a Builder for masks of w x h; the config is validated
// up front, so a bad threshold pair fails here rather than mid-render.
func NewBuilder(cfg Config, w, h int) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("mask size %dx%d must be positive", w, h)
	}

	b := &Builder{
		Config:  cfg,
		Width:   w,
		Height:  h,
		detail:  make([]uint16, w*h),
		raw:     emath.NewGray(w, h),
		mask:    emath.NewGray(w, h),
		blurred: emath.NewGray(w, h),
		blurrer: blur.NewBlurrer(w, h, cfg.BlurRadius),
	}
	if b.Decay == nil {
		b.Decay = DecayLinear
	}
	b.buildLUT()

	return b, nil
}

func (b *Builder)buildLUT() {
	span := b.Near - b.Far
	for v:=0; v<256; v++ {
		c := emath.ClampInt(v, b.Far, b.Near)
		level := (c - b.Far) * 255 / span
		b.lut[v] = uint16(level * 255)
	}
}

// SetThresholds changes the distance window. An inverted pair is rejected
// and the old window stays in force.
func (b *Builder)SetThresholds(near, far int) error {
	cfg := b.Config
	cfg.Near, cfg.Far = near, far
	if err := cfg.Validate(); err != nil {
		return err
	}
	b.Near, b.Far = near, far
	b.buildLUT()
	return nil
}

func (b *Builder)SetFadeRate(rate int) error {
	if rate < 0 {
		return fmt.Errorf("fade rate %d is negative", rate)
	}
	b.FadeRate = rate
	return nil
}

// SetBlurRadius swaps the box blur radius, reallocating the blur tables.
func (b *Builder)SetBlurRadius(radius int) {
	b.BlurRadius = radius
	b.blurrer = blur.NewBlurrer(b.Width, b.Height, radius)
}

// Update folds one depth frame into the mask. Every pixel takes the
// brighter of its new presence value and its decayed old value, so the mask
// rises instantly and fades at the configured rate.
func (b *Builder)Update(frame *image.Gray) error {
	fw, fh := emath.GraySize(frame)
	src := frame
	if fw != b.Width || fh != b.Height {
		if !b.Resample {
			return fmt.Errorf("depth %dx%d, mask %dx%d: %w", fw, fh, b.Width, b.Height, ErrDimensionMismatch)
		}
		src = emath.Resample(frame, b.Width, b.Height)
	}

	if b.Mirror {
		emath.MirrorInto(b.raw, src)
	} else {
		emath.CopyInto(b.raw, src)
	}

	for i, v := range b.raw.Pix {
		next := b.lut[v]
		if faded := b.Decay(b.detail[i], b.FadeRate); faded > next {
			next = faded
		}
		b.detail[i] = next
		b.mask.Pix[i] = uint8(next / 255)
	}

	b.reblur()
	return nil
}

func (b *Builder)reblur() {
	copy(b.blurred.Pix, b.mask.Pix)
	if b.BlurPasses > 0 {
		blur.Progressive(b.blurred.Pix, b.Width, b.Height, b.BlurPasses)
	} else {
		b.blurrer.Blur(b.blurred.Pix)
	}
}

// Brush raises the mask inside a disc, by `amount` levels per call, as if
// someone stood there. It stands in for the sensor when there isn't one.
func (b *Builder)Brush(cx, cy, radius, amount int) {
	for y:=max(cy-radius, 0); y<min(cy+radius, b.Height); y++ {
		for x:=max(cx-radius, 0); x<min(cx+radius, b.Width); x++ {
			dx, dy := x-cx, y-cy
			if dx*dx + dy*dy >= radius*radius {
				continue
			}
			i := y*b.Width + x
			b.detail[i] = uint16(min(int(b.detail[i]) + amount*255, MaxDetail))
			b.mask.Pix[i] = uint8(b.detail[i] / 255)
		}
	}
	b.reblur()
}

// Reset blanks the mask, e.g. when the scene changes.
func (b *Builder)Reset() {
	clear(b.detail)
	clear(b.raw.Pix)
	clear(b.mask.Pix)
	clear(b.blurred.Pix)
}

// Mask is the unblurred mask, detail/255.
func (b *Builder)Mask() *image.Gray    { return b.mask }

// Blurred is the mask after blurring; this is what selects frames.
func (b *Builder)Blurred() *image.Gray { return b.blurred }

// Raw holds the most recent depth samples, mirrored and resampled to the
// mask size. Ghosting reads these.
func (b *Builder)Raw() *image.Gray     { return b.raw }

func (b *Builder)Detail() []uint16     { return b.detail }
