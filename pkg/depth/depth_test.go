package depth

import (
	"fmt"
	"image"
	"image/color"
	"testing"
	"time"
)

func TestFromGray16(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 4, 1))
	for i, d := range []uint16{0, 1000, 2000, 5000} {
		src.SetGray16(i, 0, color.Gray16{Y: d})
	}
	got := FromGray16(src, 4000)
	want := []uint8{0, 192, 128, 0}
	for i := range want {
		if got.Pix[i] != want[i] {
			t.Errorf("pixel %d = %d, want %d", i, got.Pix[i], want[i])
		}
	}
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestPuppet(t *testing.T) {
	clk := &fakeClock{now: time.Unix(100, 0)}
	p := NewPuppet(80, 40)
	p.Clock = clk.Now

	if !p.IsFrameNew() {
		t.Fatal("first poll has no frame")
	}
	if p.IsFrameNew() {
		t.Error("second poll at the same instant has a new frame")
	}

	// starts at the left edge
	c := p.Position(0)
	if c.X != p.Radius || c.Y != 20 {
		t.Errorf("start position = %v, want (%d,20)", c, p.Radius)
	}
	f := p.Frame()
	if got := f.GrayAt(c.X, c.Y).Y; got != p.Near {
		t.Errorf("centre depth = %d, want %d", got, p.Near)
	}
	if got := f.GrayAt(79, 20).Y; got != 0 {
		t.Errorf("far side depth = %d, want 0", got)
	}

	// half a period later it is at the right edge
	if c := p.Position(p.Period / 2); c.X != 80-p.Radius {
		t.Errorf("half way position = %v, want x %d", c, 80-p.Radius)
	}

	p.MoveTo(5, 5)
	clk.now = clk.now.Add(time.Second)
	if !p.IsFrameNew() {
		t.Fatal("no new frame a second later")
	}
	if got := p.Frame().GrayAt(5, 5).Y; got != p.Near {
		t.Errorf("depth at MoveTo point = %d, want %d", got, p.Near)
	}
	p.Release()
	if c := p.Position(0); c.X != p.Radius {
		t.Errorf("position after Release = %v, want drifting again", c)
	}
}

type grays map[string][]image.Image

func (g grays) Exists(id string) bool { return len(g[id]) > 0 }
func (g grays) Enumerate(id string) ([]string, error) {
	out := []string{}
	for i := range g[id] {
		out = append(out, fmt.Sprintf("%d", i))
	}
	return out, nil
}
func (g grays) Decode(p string) (image.Image, error) {
	var i int
	fmt.Sscanf(p, "%d", &i)
	return g["rec"][i], nil
}

func TestReplayLoops(t *testing.T) {
	frames := []image.Image{}
	for _, v := range []uint8{10, 20, 30} {
		img := image.NewRGBA(image.Rect(0, 0, 2, 2))
		for i := range img.Pix {
			img.Pix[i] = v
		}
		frames = append(frames, img)
	}
	r, err := NewReplay(grays{"rec": frames}, "rec")
	if err != nil {
		t.Fatal(err)
	}

	got := []uint8{}
	for i := 0; i < 4; i++ {
		if !r.IsFrameNew() {
			t.Fatalf("poll %d has no frame", i)
		}
		got = append(got, r.Frame().Pix[0])
	}
	if fmt.Sprint(got) != fmt.Sprint([]uint8{10, 20, 30, 10}) {
		t.Errorf("replayed %v, want 10 20 30 10", got)
	}

	if _, err := NewReplay(grays{}, "none"); err == nil {
		t.Error("NewReplay of nothing succeeded, want error")
	}
}

func TestReplayGray16(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 2, 1))
	img.SetGray16(0, 0, color.Gray16{Y: 1000})
	img.SetGray16(1, 0, color.Gray16{Y: 3000})

	r, err := NewReplay(grays{"rec": []image.Image{img}}, "rec")
	if err != nil {
		t.Fatal(err)
	}
	if r.MaxDist != DefaultMaxDist {
		t.Errorf("MaxDist = %d, want %d", r.MaxDist, DefaultMaxDist)
	}

	r.MaxDist = 2000
	if !r.IsFrameNew() {
		t.Fatal("no frame")
	}
	if got := r.Frame().Pix; got[0] != 128 || got[1] != 0 {
		t.Errorf("frame = %v, want [128 0]", got)
	}
}
