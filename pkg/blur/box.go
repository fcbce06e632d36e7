package blur

// Based on Mario Klingemann's "superfastblur".

// A Blurrer holds the scratch space for repeated box blurs of a fixed
// size and radius, so the per-frame blur allocates nothing.
type Blurrer struct {
	Width  int
	Height int
	Radius int

	div    []int  // div[i] == i / (2*Radius+1), for every sum a window can produce
	sums   []int  // output of the horizontal pass, one channel at a time
}

func NewBlurrer(w, h, radius int) *Blurrer {
	b := &Blurrer{Width: w, Height: h, Radius: radius}
	if radius < 1 {
		return b
	}

	span := 2*radius + 1
	b.div = make([]int, 256*span)
	for i:=0; i<len(b.div); i++ {
		b.div[i] = i / span
	}
	b.sums = make([]int, w*h)

	return b
}

// Blur box blurs a single channel buffer of Width*Height bytes, in place.
func (b *Blurrer)Blur(pix []uint8) {
	b.BlurChannels(pix, 1)
}

// BlurChannels blurs a packed buffer with `channels` bytes per pixel, each
// channel independently. With 4 channels the 4th is alpha, which is not
// blurred but forced opaque.
func (b *Blurrer)BlurChannels(pix []uint8, channels int) {
	if b.Radius < 1 || b.Width < 1 || b.Height < 1 {
		return
	}

	colorChannels := channels
	if channels == 4 {
		colorChannels = 3
		for i:=3; i<len(pix); i+=4 {
			pix[i] = 0xff
		}
	}

	for c:=0; c<colorChannels; c++ {
		b.horizontal(pix, channels, c)
		b.vertical(pix, channels, c)
	}
}

func (b *Blurrer)horizontal(pix []uint8, stride, c int) {
	w, h, r := b.Width, b.Height, b.Radius
	wm := w-1

	for y:=0; y<h; y++ {
		row := y*w
		sum := 0
		for i:=-r; i<=r; i++ {
			sum += int(pix[(row+min(wm, max(i, 0)))*stride + c])
		}

		for x:=0; x<w; x++ {
			b.sums[row+x] = b.div[sum]

			// slide the window one pixel to the right
			in  := min(x+r+1, wm)
			out := max(x-r, 0)
			sum += int(pix[(row+in)*stride + c]) - int(pix[(row+out)*stride + c])
		}
	}
}

func (b *Blurrer)vertical(pix []uint8, stride, c int) {
	w, h, r := b.Width, b.Height, b.Radius
	hm := h-1

	for x:=0; x<w; x++ {
		sum := 0
		for i:=-r; i<=r; i++ {
			sum += b.sums[min(hm, max(i, 0))*w + x]
		}

		for y:=0; y<h; y++ {
			pix[(y*w+x)*stride + c] = uint8(b.div[sum])

			in  := min(y+r+1, hm)
			out := max(y-r, 0)
			sum += b.sums[in*w + x] - b.sums[out*w + x]
		}
	}
}

// Box blurs a single channel w x h buffer in place. A radius below 1 leaves
// it untouched.
func Box(pix []uint8, w, h, radius int) {
	if radius < 1 {
		return
	}
	NewBlurrer(w, h, radius).Blur(pix)
}

// BoxChannels is Box for packed 3 or 4 channel pixels.
func BoxChannels(pix []uint8, w, h, channels, radius int) {
	if radius < 1 {
		return
	}
	NewBlurrer(w, h, radius).BlurChannels(pix, channels)
}
