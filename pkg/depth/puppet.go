package depth

import(
	"image"
	"math"
	"time"

	"github.com/abworrall/temporalmask/pkg/emath"
)

// Puppet stands in for a sensor: a figure-sized disc drifting back and forth
// across the frame, leaning in and out of range as it goes. A position set
// with MoveTo overrides the drift until Release is called.
type Puppet struct {
	Width    int
	Height   int
	Radius   int
	Near     uint8          // depth at the centre of the disc
	Period   time.Duration  // for one sweep across and back
	FPS      int            // new frames per second
	Clock    func() time.Time

	Tilt     float64
	manual  *image.Point
	start    time.Time
	last     time.Time
	frame   *image.Gray
}

func NewPuppet(w, h int) *Puppet {
	return &Puppet{
		Width:  w,
		Height: h,
		Radius: h/4,
		Near:   230,
		Period: 8 * time.Second,
		FPS:    30,
		Clock:  time.Now,
		frame:  emath.NewGray(w, h),
	}
}

func (p *Puppet)SetTilt(degrees float64) error {
	p.Tilt = degrees
	return nil
}

func (p *Puppet)MoveTo(x, y int) { p.manual = &image.Point{x, y} }
func (p *Puppet)Release()        { p.manual = nil }

func (p *Puppet)IsFrameNew() bool {
	now := p.Clock()
	if p.start.IsZero() {
		p.start = now
	}
	if !p.last.IsZero() && p.FPS > 0 && now.Sub(p.last) < time.Second/time.Duration(p.FPS) {
		return false
	}
	p.last = now
	p.render(now.Sub(p.start))
	return true
}

func (p *Puppet)Frame() *image.Gray { return p.frame }

// Position is where the disc is centred after t.
func (p *Puppet)Position(t time.Duration) image.Point {
	if p.manual != nil {
		return *p.manual
	}
	phase := 0.0
	if p.Period > 0 {
		phase = float64(t % p.Period) / float64(p.Period)
	}
	// triangle wave, 0 -> 1 -> 0
	sweep := 1 - math.Abs(2*phase - 1)
	x := int(emath.Map(sweep, 0, 1, float64(p.Radius), float64(p.Width - p.Radius)))
	return image.Point{x, p.Height/2}
}

func (p *Puppet)render(t time.Duration) {
	for i := range p.frame.Pix {
		p.frame.Pix[i] = 0
	}

	c := p.Position(t)
	r2 := p.Radius * p.Radius
	for y:=max(c.Y - p.Radius, 0); y<min(c.Y + p.Radius, p.Height); y++ {
		for x:=max(c.X - p.Radius, 0); x<min(c.X + p.Radius, p.Width); x++ {
			dx, dy := x - c.X, y - c.Y
			if d2 := dx*dx + dy*dy; d2 < r2 {
				// falls away towards the rim
				fall := float64(d2) / float64(r2)
				p.frame.Pix[y*p.frame.Stride + x] = emath.ClampByte(int(float64(p.Near) * (1 - 0.5*fall)))
			}
		}
	}
}
