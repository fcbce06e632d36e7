package blur

import (
	"bytes"
	"math/rand"
	"testing"
)

func randomPix(seed int64, n int) []uint8 {
	rng := rand.New(rand.NewSource(seed))
	pix := make([]uint8, n)
	for i := range pix {
		pix[i] = uint8(rng.Intn(256))
	}
	return pix
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// naiveBox is the O(radius)-per-pixel reference: average the edge clamped
// window along each row, then down each column of the row averages.
func naiveBox(pix []uint8, w, h, r int) []uint8 {
	span := 2*r + 1
	rows := make([]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := 0
			for i := -r; i <= r; i++ {
				sum += int(pix[y*w+clamp(x+i, 0, w-1)])
			}
			rows[y*w+x] = sum / span
		}
	}

	out := make([]uint8, w*h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			sum := 0
			for i := -r; i <= r; i++ {
				sum += rows[clamp(y+i, 0, h-1)*w+x]
			}
			out[y*w+x] = uint8(sum / span)
		}
	}
	return out
}

func TestBoxMatchesNaive(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		radius int
	}{
		{"single pixel", 1, 1, 3},
		{"small radius", 9, 7, 1},
		{"typical", 32, 24, 5},
		{"radius wider than buffer", 6, 4, 10},
		{"tall", 3, 40, 2},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pix := randomPix(int64(i+1), tt.w*tt.h)
			want := naiveBox(pix, tt.w, tt.h, tt.radius)

			Box(pix, tt.w, tt.h, tt.radius)
			for j := range pix {
				if pix[j] != want[j] {
					t.Fatalf("pixel (%d,%d) = %d, want %d", j%tt.w, j/tt.w, pix[j], want[j])
				}
			}
		})
	}
}

func TestBoxEdgesClampNotZeroPad(t *testing.T) {
	// A uniform field only stays uniform at the borders if the window
	// repeats edge values rather than padding with zeros or wrapping.
	w, h := 10, 6
	pix := bytes.Repeat([]uint8{200}, w*h)
	Box(pix, w, h, 3)
	for i, v := range pix {
		if v != 200 {
			t.Fatalf("pixel (%d,%d) = %d, want 200", i%w, i/w, v)
		}
	}
}

func TestBoxBelowRadiusOneIsNoop(t *testing.T) {
	for _, r := range []int{0, -1, -10} {
		pix := randomPix(7, 64)
		orig := append([]uint8(nil), pix...)
		Box(pix, 8, 8, r)
		if !bytes.Equal(pix, orig) {
			t.Errorf("Box radius %d changed the buffer", r)
		}

		rgba := randomPix(8, 64*4)
		origRGBA := append([]uint8(nil), rgba...)
		BoxChannels(rgba, 8, 8, 4, r)
		if !bytes.Equal(rgba, origRGBA) {
			t.Errorf("BoxChannels radius %d changed the buffer", r)
		}
	}
}

func TestBoxChannelsBlursEachChannelAndForcesAlpha(t *testing.T) {
	w, h, r := 12, 9, 2
	rgba := randomPix(11, w*h*4)

	planes := make([][]uint8, 3)
	for c := 0; c < 3; c++ {
		planes[c] = make([]uint8, w*h)
		for i := 0; i < w*h; i++ {
			planes[c][i] = rgba[i*4+c]
		}
		planes[c] = naiveBox(planes[c], w, h, r)
	}

	BoxChannels(rgba, w, h, 4, r)

	for i := 0; i < w*h; i++ {
		for c := 0; c < 3; c++ {
			if rgba[i*4+c] != planes[c][i] {
				t.Fatalf("pixel %d channel %d = %d, want %d", i, c, rgba[i*4+c], planes[c][i])
			}
		}
		if rgba[i*4+3] != 0xff {
			t.Fatalf("pixel %d alpha = %d, want 255", i, rgba[i*4+3])
		}
	}
}

func TestBlurrerReuse(t *testing.T) {
	w, h := 20, 15
	b := NewBlurrer(w, h, 4)
	for seed := int64(0); seed < 3; seed++ {
		pix := randomPix(seed, w*h)
		want := naiveBox(pix, w, h, 4)
		b.Blur(pix)
		if !bytes.Equal(pix, want) {
			t.Errorf("seed %d: reused Blurrer disagrees with reference", seed)
		}
	}
}

func TestBoxCostDoesNotGrowWithRadius(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}

	w, h := 512, 512
	pix := randomPix(3, w*h)
	timeRadius := func(r int) float64 {
		b := NewBlurrer(w, h, r)
		res := testing.Benchmark(func(bb *testing.B) {
			for i := 0; i < bb.N; i++ {
				b.Blur(pix)
			}
		})
		return float64(res.NsPerOp())
	}

	small := timeRadius(1)
	large := timeRadius(64)
	// An O(radius) blur would be ~40x slower at radius 64.
	if large > 4*small {
		t.Errorf("radius 64 took %.0fns/op vs %.0fns/op at radius 1; want roughly constant", large, small)
	}
}

func BenchmarkBox640x480Radius5(b *testing.B) {
	pix := randomPix(1, 640*480)
	bl := NewBlurrer(640, 480, 5)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bl.Blur(pix)
	}
}

func BenchmarkBox640x480Radius50(b *testing.B) {
	pix := randomPix(1, 640*480)
	bl := NewBlurrer(640, 480, 50)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bl.Blur(pix)
	}
}
