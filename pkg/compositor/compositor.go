// Package compositor ties the pieces together: each tick it folds the
// latest depth frame into the mask, lets the scheduler move sets along,
// and composites the current set's frames into the output image.
package compositor

import(
	"fmt"
	"image"
	"log"
	"time"

	"github.com/abworrall/temporalmask/pkg/depth"
	"github.com/abworrall/temporalmask/pkg/emath"
	"github.com/abworrall/temporalmask/pkg/framestore"
	"github.com/abworrall/temporalmask/pkg/mask"
	"github.com/abworrall/temporalmask/pkg/record"
	"github.com/abworrall/temporalmask/pkg/scheduler"
	"github.com/abworrall/temporalmask/pkg/selector"
)

// Brush settings for pointer input, when there is no sensor.
const(
	BrushRadius = 60
	BrushAmount = 16
)

type Compositor struct {
	Config

	Depth      depth.Source
	Store     *framestore.Store
	Scheduler *scheduler.Scheduler
	Builder   *mask.Builder
	Stats     *Stats
	Output    *image.RGBA
	Recorder  *record.Recorder  // non-nil while recording

	table     *selector.Table
	tableSet  *framestore.Set   // which set the table was built for
}

// New sets up a compositor whose output, and mask, are `size`; that should
// be the size of the frames in the sets.
func New(cfg Config, src depth.Source, store *framestore.Store, sets []*framestore.Set, size image.Point) (*Compositor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b, err := mask.NewBuilder(cfg.MaskConfig(), size.X, size.Y)
	if err != nil {
		return nil, err
	}

	if store.Expect == (image.Point{}) {
		store.Expect = size
	}

	sched := scheduler.New(store, sets, cfg.Envelope())
	sched.Verbosity = cfg.Verbosity

	c := &Compositor{
		Config:    cfg,
		Depth:     src,
		Store:     store,
		Scheduler: sched,
		Builder:   b,
		Stats:     NewStats(),
		Output:    image.NewRGBA(image.Rect(0, 0, size.X, size.Y)),
	}
	c.tilt()

	return c, nil
}

func (c *Compositor)String() string {
	return fmt.Sprintf("%s; near %d far %d fade %.1f; %s", c.Scheduler, c.NearThreshold, c.FarThreshold, c.FadeRate, c.Stats)
}

func (c *Compositor)tilt() {
	if t, ok := c.Depth.(depth.Tilter); ok {
		if err := t.SetTilt(c.TiltDegrees); err != nil {
			log.Printf("tilt %.1f: %v\n", c.TiltDegrees, err)
		}
	}
}

// Tick renders one frame into Output. The mask is always updated before it
// is used to select frames.
func (c *Compositor)Tick(now time.Time) error {
	start := time.Now()

	c.Scheduler.Tick(now)
	if err := c.Scheduler.Err(); err != nil && c.AutoAdvance && len(c.Scheduler.Sets) > 1 {
		log.Printf("skipping %s: %v\n", c.Scheduler.Sets[c.Scheduler.CurrentIndex()].Path, err)
		c.Scheduler.Advance(now)
	}

	if c.Depth != nil && c.Depth.IsFrameNew() {
		if err := c.Builder.Update(c.Depth.Frame()); err != nil {
			return err
		}
	}

	if set := c.Scheduler.Current(); set == nil {
		c.blank()
	} else if err := c.compose(set, now); err != nil {
		return err
	}

	if c.Recorder != nil {
		c.Recorder.Add(c.Output)
	}

	c.Stats.Record(time.Since(start), c.Builder.Mask())
	if c.Verbosity > 1 && c.Stats.Ticks % 300 == 0 {
		log.Printf("%s\n", c)
		log.Printf("mask levels: %v\n", c.Stats.Levels)
	}

	return nil
}

func (c *Compositor)compose(set *framestore.Set, now time.Time) error {
	if c.tableSet != set {
		t, err := selector.TableForSet(set)
		if err != nil {
			return err
		}
		c.table, c.tableSet = t, set
	}

	set.Advance(now, c.FrameOffsetFPS)

	in := selector.Inputs{
		Mask:  c.Builder.Blurred(),
		Faded: c.Builder.Mask(),
		Raw:   c.Builder.Raw(),
	}
	return selector.Compose(c.Output, set, c.table, in, c.Scheduler.Multiplier(now), c.Options())
}

func (c *Compositor)blank() {
	for i:=0; i<len(c.Output.Pix); i+=4 {
		c.Output.Pix[i], c.Output.Pix[i+1], c.Output.Pix[i+2], c.Output.Pix[i+3] = 0, 0, 0, 0xff
	}
}

// Apply swaps in a changed config, pushing each value to whatever uses it.
// An invalid config is rejected and the old one stays in force.
func (c *Compositor)Apply(cfg Config, now time.Time) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	mc := cfg.MaskConfig()

	if err := c.Builder.SetThresholds(mc.Near, mc.Far); err != nil {
		return err
	}
	c.Builder.SetFadeRate(mc.FadeRate)
	if mc.BlurRadius != c.Builder.BlurRadius {
		c.Builder.SetBlurRadius(mc.BlurRadius)
	}
	c.Builder.BlurPasses = mc.BlurPasses
	c.Builder.Mirror = mc.Mirror
	c.Builder.Resample = mc.Resample
	c.Builder.Decay = mc.Decay

	env := cfg.Envelope()
	autoChanged := env.AutoAdvance != c.Scheduler.Envelope.AutoAdvance
	c.Scheduler.Envelope = env
	if autoChanged {
		c.Scheduler.SetAutoAdvance(env.AutoAdvance, now)
	}

	tiltChanged := cfg.TiltDegrees != c.TiltDegrees
	c.Config = cfg
	if tiltChanged {
		c.tilt()
	}
	return nil
}

// Brush paints presence at a pointer position, for running without a sensor.
func (c *Compositor)Brush(x, y int) {
	c.Builder.Brush(x, y, BrushRadius, BrushAmount)
}

func (c *Compositor)Recording() bool { return c.Recorder != nil }

// ToggleRecording starts a new recording, or finishes the current one.
func (c *Compositor)ToggleRecording(now time.Time) error {
	if c.Recorder != nil {
		r := c.Recorder
		c.Recorder = nil
		_, err := r.Stop()
		return err
	}

	r, err := record.Start(c.RecordDir, now, max(c.Workers, 2))
	if err != nil {
		return err
	}
	c.Recorder = r
	return nil
}

// DumpMask writes the current mask as a titled heat map, for debugging.
func (c *Compositor)DumpMask(filename string) error {
	title := fmt.Sprintf("near %d far %d fade %.1f", c.NearThreshold, c.FarThreshold, c.FadeRate)
	return emath.DumpGray(c.Builder.Blurred(), title, filename)
}
