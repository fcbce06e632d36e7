package compositor

import(
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/abworrall/temporalmask/pkg/emath"
	"github.com/abworrall/temporalmask/pkg/mask"
	"github.com/abworrall/temporalmask/pkg/selector"
)

var(
	ErrBadConfig = errors.New("bad config")
)

// Config holds every tunable of an installation. It is persisted as yaml,
// and rewritten whenever a value is changed interactively.
type Config struct {
	Verbosity         int

	NearThreshold     int      // depth at or above this is full presence
	FarThreshold      int      // depth at or below this is no presence
	FadeRate          float64  // mask levels lost per tick once presence goes
	Decay             string   // see mask.DecayStrategies
	Mirror            bool     // flip depth frames horizontally
	Resample          bool     // scale depth frames to the output size if they differ
	BlurAmount        int      // box radius, or the number of passes if ProgressiveBlur
	ProgressiveBlur   bool

	ReverseTime       bool
	ShowGhost         bool
	GhostThreshold    int
	GhostBoost        int
	Workers           int      // compositing goroutines; 1 renders on the caller's goroutine

	AutoAdvance       bool
	FadeInMillis      int
	SetDurationMillis int
	FadeOutMillis     int
	FrameOffsetFPS    int      // how fast each layer's frame offset runs

	FramesDir         string
	Tonemapper        string   // for .hdr frames; see framestore.Tonemappers
	MaxFrameMB        int64    // ceiling on loaded frame memory; 0 for none
	TiltDegrees       float64
	RecordDir         string   // parent of the timestamped recording folders
}

func NewConfig() Config {
	return Config{
		NearThreshold:     255,
		FarThreshold:      64,
		FadeRate:          3,
		Decay:             "linear",
		Mirror:            true,
		BlurAmount:        3,
		ShowGhost:         true,
		GhostThreshold:    196,
		GhostBoost:        32,
		Workers:           1,
		AutoAdvance:       true,
		FadeInMillis:      1000,
		SetDurationMillis: 5000,
		FadeOutMillis:     1000,
		FrameOffsetFPS:    30,
		FramesDir:         "data",
		Tonemapper:        "linear",
		TiltDegrees:       15,
		RecordDir:         ".",
	}
}

func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// LoadConfig reads a config file over the defaults.
func LoadConfig(filename string) (Config, error) {
	contents, err := ioutil.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %v", filename, err)
	}
	return newConfigFromYaml(contents)
}

func (c Config)Save(filename string) error {
	if err := ioutil.WriteFile(filename, []byte(c.AsYaml()), 0644); err != nil {
		return fmt.Errorf("config write %s: %v", filename, err)
	}
	return nil
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

func (c Config)Validate() error {
	if c.NearThreshold <= c.FarThreshold {
		return fmt.Errorf("near %d, far %d: %w", c.NearThreshold, c.FarThreshold, mask.ErrThresholdInversion)
	}
	for _, v := range []int{c.NearThreshold, c.FarThreshold, c.GhostThreshold, c.GhostBoost} {
		if v < 0 || v > 255 {
			return fmt.Errorf("%d out of range [0,255]: %w", v, ErrBadConfig)
		}
	}
	if c.FadeRate < 0 || c.FadeRate > 255 {
		return fmt.Errorf("fade rate %v out of range [0,255]: %w", c.FadeRate, ErrBadConfig)
	}
	if c.FadeInMillis < 0 || c.SetDurationMillis < 0 || c.FadeOutMillis < 0 || c.FrameOffsetFPS < 0 || c.BlurAmount < 0 {
		return fmt.Errorf("durations, rates and blur must not be negative: %w", ErrBadConfig)
	}
	if _, err := c.GetDecay(); err != nil {
		return fmt.Errorf("%v: %w", err, ErrBadConfig)
	}
	return nil
}

func (c Config)GetDecay() (mask.DecayFunc, error) {
	return mask.GetDecay(c.Decay)
}

// MaskConfig is the mask.Builder's share of the config. FadeRate is scaled
// from mask levels to detail units.
func (c Config)MaskConfig() mask.Config {
	mc := mask.Config{
		Near:     c.NearThreshold,
		Far:      c.FarThreshold,
		FadeRate: int(c.FadeRate * 255 + 0.5),
		Mirror:   c.Mirror,
		Resample: c.Resample,
	}
	if decay, err := c.GetDecay(); err == nil {
		mc.Decay = decay
	}
	if c.ProgressiveBlur {
		mc.BlurPasses = c.BlurAmount
	} else {
		mc.BlurRadius = c.BlurAmount
	}
	return mc
}

func (c Config)Envelope() selector.Envelope {
	return selector.Envelope{
		FadeIn:      time.Duration(c.FadeInMillis) * time.Millisecond,
		Hold:        time.Duration(c.SetDurationMillis) * time.Millisecond,
		FadeOut:     time.Duration(c.FadeOutMillis) * time.Millisecond,
		AutoAdvance: c.AutoAdvance,
	}
}

func (c Config)Options() selector.Options {
	return selector.Options{
		Reverse:        c.ReverseTime,
		Ghost:          c.ShowGhost,
		GhostThreshold: emath.ClampByte(c.GhostThreshold),
		GhostBoost:     emath.ClampByte(c.GhostBoost),
		Workers:        c.Workers,
	}
}

// The nudges step a value the way the installation's keys do, keeping near
// at least one above far and both within [0,255].

func (c *Config)NudgeNear(delta int) {
	c.NearThreshold = emath.ClampInt(c.NearThreshold + delta, c.FarThreshold + 1, 255)
}

func (c *Config)NudgeFar(delta int) {
	c.FarThreshold = emath.ClampInt(c.FarThreshold + delta, 0, c.NearThreshold - 1)
}

func (c *Config)NudgeFadeRate(delta float64) {
	c.FadeRate = min(max(c.FadeRate + delta, 0), 255)
}

// NudgeSetDuration moves in 2.5s steps, never below 2.5s.
func (c *Config)NudgeSetDuration(steps int) {
	c.SetDurationMillis = max(c.SetDurationMillis + steps*2500, 2500)
}

func (c *Config)NudgeTilt(delta float64) {
	c.TiltDegrees += delta
}
