package blur

// Offset is how far apart the three taps of pass `pass` (0-based) are.
func Offset(pass int) int {
	return pass*pass/2 + 1
}

// EffectiveRadius is how far a single bright pixel can spread, along
// each axis, after `passes` passes of Progressive.
func EffectiveRadius(passes int) int {
	r := 0
	for i:=0; i<passes; i++ {
		r += Offset(i)
	}
	return r
}

// Progressive blurs a single channel w x h buffer in place with `passes`
// separable 3-tap averages. The taps of pass i sit Offset(i) pixels either
// side of the centre, clamped to the buffer edge, so a handful of passes
// reaches a wide radius for very little work.
func Progressive(pix []uint8, w, h, passes int) {
	if passes < 1 || w < 1 || h < 1 {
		return
	}

	tmp := make([]uint8, w*h)
	wm, hm := w-1, h-1

	for i:=0; i<passes; i++ {
		o := Offset(i)

		for y:=0; y<h; y++ {
			row := pix[y*w : y*w+w]
			for x:=0; x<w; x++ {
				sum := int(row[max(x-o, 0)]) + int(row[x]) + int(row[min(x+o, wm)])
				tmp[y*w+x] = uint8(sum / 3)
			}
		}

		for y:=0; y<h; y++ {
			up, down := max(y-o, 0)*w, min(y+o, hm)*w
			for x:=0; x<w; x++ {
				sum := int(tmp[up+x]) + int(tmp[y*w+x]) + int(tmp[down+x])
				pix[y*w+x] = uint8(sum / 3)
			}
		}
	}
}
