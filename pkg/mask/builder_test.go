package mask

import (
	"errors"
	"image"
	"testing"
)

func uniformFrame(w, h int, v uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = v
	}
	return g
}

func newTestBuilder(t *testing.T, cfg Config, w, h int) *Builder {
	t.Helper()
	b, err := NewBuilder(cfg, w, h)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	return b
}

func TestRisesToFullInOneTick(t *testing.T) {
	b := newTestBuilder(t, Config{Near: 180, Far: 100, FadeRate: 100}, 4, 3)
	if err := b.Update(uniformFrame(4, 3, 250)); err != nil {
		t.Fatal(err)
	}
	for i, d := range b.Detail() {
		if d != MaxDetail {
			t.Fatalf("detail[%d] = %d, want %d", i, d, MaxDetail)
		}
		if b.Mask().Pix[i] != 255 {
			t.Fatalf("mask[%d] = %d, want 255", i, b.Mask().Pix[i])
		}
	}
}

func TestLinearDecayTickCount(t *testing.T) {
	for _, rate := range []int{1000, 2550, 7, MaxDetail, MaxDetail + 10} {
		b := newTestBuilder(t, Config{Near: 180, Far: 100, FadeRate: rate}, 2, 2)
		b.Update(uniformFrame(2, 2, 255))

		want := (MaxDetail + rate - 1) / rate
		empty := uniformFrame(2, 2, 0)
		prev := b.Detail()[0]
		ticks := 0
		for b.Detail()[0] > 0 {
			b.Update(empty)
			ticks++
			if d := b.Detail()[0]; d > prev {
				t.Fatalf("rate %d: detail rose from %d to %d while fading (wrapped below zero?)", rate, prev, d)
			}
			prev = b.Detail()[0]
			if ticks > want+1 {
				break
			}
		}
		if ticks != want {
			t.Errorf("rate %d: cleared after %d ticks, want %d", rate, ticks, want)
		}

		// and it stays at zero
		b.Update(empty)
		if d := b.Detail()[0]; d != 0 {
			t.Errorf("rate %d: detail = %d after clearing, want 0", rate, d)
		}
	}
}

func TestDecayNeverDropsBelowCurrentPresence(t *testing.T) {
	b := newTestBuilder(t, Config{Near: 200, Far: 0, FadeRate: 5000}, 1, 1)
	b.Update(uniformFrame(1, 1, 200))
	b.Update(uniformFrame(1, 1, 100))
	b.Update(uniformFrame(1, 1, 100))

	// 100 of [0,200] is level 127
	for i := 0; i < 50; i++ {
		b.Update(uniformFrame(1, 1, 100))
	}
	if got := b.Mask().Pix[0]; got != 127 {
		t.Errorf("mask = %d after steady half presence, want 127", got)
	}
}

func TestThresholdRemap(t *testing.T) {
	tests := []struct {
		sample uint8
		want   uint8
	}{
		{0, 0},
		{100, 0},
		{140, 127}, // (140-100)*255/80
		{179, 251},
		{180, 255},
		{255, 255},
	}

	for _, tt := range tests {
		b := newTestBuilder(t, Config{Near: 180, Far: 100}, 1, 1)
		b.Update(uniformFrame(1, 1, tt.sample))
		if got := b.Mask().Pix[0]; got != tt.want {
			t.Errorf("sample %d: mask = %d, want %d", tt.sample, got, tt.want)
		}
	}
}

func TestThresholdInversionRejected(t *testing.T) {
	for _, c := range []struct{ near, far int }{{100, 100}, {90, 100}, {0, 255}} {
		_, err := NewBuilder(Config{Near: c.near, Far: c.far}, 2, 2)
		if !errors.Is(err, ErrThresholdInversion) {
			t.Errorf("NewBuilder(near %d, far %d) err = %v, want ErrThresholdInversion", c.near, c.far, err)
		}
	}

	b := newTestBuilder(t, Config{Near: 180, Far: 100}, 1, 1)
	if err := b.SetThresholds(50, 60); !errors.Is(err, ErrThresholdInversion) {
		t.Errorf("SetThresholds(50, 60) err = %v, want ErrThresholdInversion", err)
	}
	if b.Near != 180 || b.Far != 100 {
		t.Errorf("thresholds = [%d,%d] after rejected change, want [100,180]", b.Far, b.Near)
	}
	if err := b.SetThresholds(150, 50); err != nil {
		t.Errorf("SetThresholds(150, 50): %v", err)
	}
}

func TestMirror(t *testing.T) {
	frame := image.NewGray(image.Rect(0, 0, 3, 1))
	copy(frame.Pix, []uint8{10, 20, 250})

	b := newTestBuilder(t, Config{Near: 255, Far: 0, Mirror: true}, 3, 1)
	b.Update(frame)
	want := []uint8{250, 20, 10}
	for i, v := range b.Raw().Pix {
		if v != want[i] {
			t.Errorf("raw[%d] = %d, want %d", i, v, want[i])
		}
	}
	if b.Mask().Pix[0] != 250 || b.Mask().Pix[2] != 10 {
		t.Errorf("mask = %v, want mirrored", b.Mask().Pix)
	}
}

func TestSizeMismatch(t *testing.T) {
	b := newTestBuilder(t, Config{Near: 180, Far: 100}, 8, 8)
	if err := b.Update(uniformFrame(4, 4, 250)); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Update(4x4) err = %v, want ErrDimensionMismatch", err)
	}

	b = newTestBuilder(t, Config{Near: 180, Far: 100, Resample: true}, 8, 8)
	if err := b.Update(uniformFrame(4, 4, 250)); err != nil {
		t.Fatalf("Update with resampling: %v", err)
	}
	for i, v := range b.Mask().Pix {
		if v != 255 {
			t.Fatalf("mask[%d] = %d after resampling a full frame, want 255", i, v)
		}
	}
}

// 10x10 grid of samples at 200, near 180, far 100, fading 10 levels a tick.
func TestPresenceThenAbsence(t *testing.T) {
	b := newTestBuilder(t, Config{Near: 180, Far: 100, FadeRate: 10 * 255, BlurRadius: 5}, 10, 10)

	b.Update(uniformFrame(10, 10, 200))
	for i := range b.Mask().Pix {
		if b.Mask().Pix[i] != 255 || b.Blurred().Pix[i] != 255 {
			t.Fatalf("pixel %d: mask %d, blurred %d after first tick, want 255", i, b.Mask().Pix[i], b.Blurred().Pix[i])
		}
	}

	empty := uniformFrame(10, 10, 0)
	for tick := 0; tick < 30; tick++ {
		b.Update(empty)
	}
	for i := range b.Mask().Pix {
		if b.Mask().Pix[i] != 0 || b.Blurred().Pix[i] != 0 {
			t.Fatalf("pixel %d: mask %d, blurred %d after 30 empty ticks, want 0", i, b.Mask().Pix[i], b.Blurred().Pix[i])
		}
	}
}

func TestProgressiveBlurOption(t *testing.T) {
	b := newTestBuilder(t, Config{Near: 180, Far: 100, BlurPasses: 3}, 21, 21)
	frame := uniformFrame(21, 21, 0)
	frame.Pix[10*21+10] = 255
	b.Update(frame)

	if b.Mask().Pix[10*21+10] != 255 {
		t.Fatalf("unblurred centre = %d, want 255", b.Mask().Pix[10*21+10])
	}
	if b.Blurred().Pix[10*21+10] >= 255 {
		t.Errorf("blurred centre = %d, want it spread out", b.Blurred().Pix[10*21+10])
	}
}

func TestBrush(t *testing.T) {
	b := newTestBuilder(t, Config{Near: 180, Far: 100}, 20, 20)
	b.Brush(10, 10, 3, 16)
	if got := b.Mask().Pix[10*20+10]; got != 16 {
		t.Errorf("centre = %d, want 16", got)
	}
	if got := b.Mask().Pix[10*20+14]; got != 0 {
		t.Errorf("outside disc = %d, want 0", got)
	}
	for i := 0; i < 40; i++ {
		b.Brush(10, 10, 3, 16)
	}
	if got := b.Mask().Pix[10*20+10]; got != 255 {
		t.Errorf("centre = %d after many strokes, want 255", got)
	}
}

func TestProportionalDecay(t *testing.T) {
	prev := uint16(MaxDetail)
	steps := 0
	for prev > 0 {
		next := DecayProportional(prev, 2550)
		if next >= prev {
			t.Fatalf("DecayProportional(%d) = %d, want smaller", prev, next)
		}
		prev = next
		steps++
		if steps > 10000 {
			t.Fatal("proportional decay did not reach zero")
		}
	}
	if steps <= (MaxDetail+2549)/2550 {
		t.Errorf("proportional decay cleared in %d steps, want slower than linear", steps)
	}
}

func TestGetDecay(t *testing.T) {
	for _, name := range append(DecayStrategies, "") {
		if _, err := GetDecay(name); err != nil {
			t.Errorf("GetDecay(%q): %v", name, err)
		}
	}
	if _, err := GetDecay("cubic"); err == nil {
		t.Error("GetDecay(cubic) succeeded, want error")
	}
}
