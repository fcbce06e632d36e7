package selector

import "time"

// Envelope shapes how strongly a set shows through over its time on screen:
// a linear ramp up over FadeIn, full strength for Hold, and a linear ramp
// down over FadeOut. Without AutoAdvance there is no fade out; the set holds
// at full strength until it is moved on by hand.
type Envelope struct {
	FadeIn       time.Duration
	Hold         time.Duration
	FadeOut      time.Duration
	AutoAdvance  bool
}

func (e Envelope)Total() time.Duration { return e.FadeIn + e.Hold + e.FadeOut }

// Multiplier is in [0,1].
func (e Envelope)Multiplier(elapsed time.Duration) float64 {
	switch {
	case elapsed < 0:
		return 0
	case elapsed < e.FadeIn:
		return float64(elapsed) / float64(e.FadeIn)
	case !e.AutoAdvance, elapsed < e.FadeIn + e.Hold:
		return 1
	case elapsed < e.Total():
		return 1 - float64(elapsed - e.FadeIn - e.Hold) / float64(e.FadeOut)
	}
	return 0
}
