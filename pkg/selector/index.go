// Package selector turns mask values into frame choices, and composites the
// chosen frames into an output image.
package selector

import(
	"github.com/abworrall/temporalmask/pkg/emath"
)

// scale maps pos in [0, width] onto [0, frameCount-1], rounding to nearest.
func scale(pos, width, frameCount int) int {
	if width <= 0 || frameCount <= 1 {
		return 0
	}
	return (2*pos*(frameCount-1) + width) / (2*width)
}

// SingleIndex picks a frame for one mask value when the whole mask range
// drives a single sequence: 0 is the first frame, 255 the last. The offset
// shifts the result round the loop, and reverse plays it backwards.
func SingleIndex(mask uint8, frameCount, offset int, reverse bool) int {
	if frameCount <= 0 {
		return 0
	}
	return finish(scale(int(mask), 255, frameCount), frameCount, offset, reverse)
}

func finish(i, frameCount, offset int, reverse bool) int {
	i = emath.Wrap(i + offset, frameCount)
	if reverse {
		i = frameCount - i - 1
	}
	return i
}

// Band is the range of mask values [lo, hi] that select layer `layer`.
func Band(layer, layerCount int) (lo, hi int) {
	lo = (256*layer + layerCount - 1) / layerCount
	hi = (256*(layer+1) + layerCount - 1) / layerCount - 1
	return
}

// Partition splits the mask range into layerCount equal bands. It returns
// which band the value falls in, and how far into that band it is.
func Partition(mask uint8, layerCount int) (layer, pos int) {
	if layerCount <= 1 {
		return 0, int(mask)
	}
	layer = int(mask) * layerCount / 256
	lo, _ := Band(layer, layerCount)
	return layer, int(mask) - lo
}

// LayerIndex is the frame within the selected layer, before any offset:
// the bottom of a band is that layer's first frame and the top its last.
func LayerIndex(mask uint8, layerCount, frameCount int) int {
	if frameCount <= 0 {
		return 0
	}
	layer, pos := Partition(mask, layerCount)
	lo, hi := Band(layer, max(layerCount, 1))
	return scale(pos, hi-lo, frameCount)
}
