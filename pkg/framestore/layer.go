package framestore

import(
	"fmt"
	"path"
	"sync/atomic"
	"time"

	"github.com/abworrall/temporalmask/pkg/emath"
)

// A Layer is one sequence of frames within a Set, with its own free running
// playback offset.
type Layer struct {
	Index        int
	Path         string      // identifier handed to the FrameSource
	FrameCount   int         // as counted at discovery time

	frameOffset  int         // in [0, frames); only the render goroutine touches this
	previousTime time.Time   // when frameOffset last advanced, less any unspent remainder

	buf          atomic.Pointer[FrameBuffer] // published only once completely filled
}

func (l *Layer)String() string {
	return fmt.Sprintf("%s: %d frames, offset %d", path.Base(l.Path), l.FrameCount, l.frameOffset)
}

// Buffer is the layer's pixels, or nil if it isn't loaded.
func (l *Layer)Buffer() *FrameBuffer { return l.buf.Load() }

func (l *Layer)FrameOffset() int { return l.frameOffset }

// ResetClock restarts offset playback timing from `now`.
func (l *Layer)ResetClock(now time.Time) {
	l.previousTime = now
}

// Advance moves the frame offset on by however many whole frames at `fps`
// fit into the time since the last advance. The part of a frame left over
// is carried into the next call, so playback speed doesn't drift with the
// render rate.
func (l *Layer)Advance(now time.Time, fps int) {
	fb := l.Buffer()
	if fb == nil || fb.FrameCount == 0 || fps <= 0 {
		return
	}
	if l.previousTime.IsZero() {
		l.previousTime = now
		return
	}

	elapsed := now.Sub(l.previousTime)
	if elapsed <= 0 {
		return
	}

	frames := int64(elapsed) * int64(fps) / int64(time.Second)
	if frames == 0 {
		return
	}

	l.frameOffset = emath.Wrap(l.frameOffset + int(frames % int64(fb.FrameCount)), fb.FrameCount)
	l.previousTime = l.previousTime.Add(time.Duration(frames * int64(time.Second) / int64(fps)))
}

// A Set is a scene: layers that are loaded, shown and unloaded together.
type Set struct {
	Index    int
	Path     string
	Layers []*Layer

	loaded   atomic.Bool  // stored true only after every layer buffer is published
	loading  atomic.Bool
}

func (s *Set)String() string {
	str := fmt.Sprintf("Set %s [loaded=%v\n", s.Path, s.Loaded())
	for _, l := range s.Layers {
		str += fmt.Sprintf("  %s\n", l)
	}
	return str + "]"
}

// Loaded reports whether every layer's pixels are ready to read.
func (s *Set)Loaded() bool  { return s.loaded.Load() }
func (s *Set)Loading() bool { return s.loading.Load() }

// Bytes estimates the memory needed to load the set at w x h.
func (s *Set)Bytes(w, h int) int64 {
	n := int64(0)
	for _, l := range s.Layers {
		n += BufferBytes(l.FrameCount, w, h)
	}
	return n
}

// ResetClocks restarts offset playback on every layer.
func (s *Set)ResetClocks(now time.Time) {
	for _, l := range s.Layers {
		l.ResetClock(now)
	}
}

// Advance steps every layer's frame offset; see Layer.Advance.
func (s *Set)Advance(now time.Time, fps int) {
	for _, l := range s.Layers {
		l.Advance(now, fps)
	}
}
