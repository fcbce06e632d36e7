package framestore

import(
	"errors"
	"fmt"
	"image"
	"log"
	"sync/atomic"
)

var(
	ErrNoFrames          = errors.New("no frames found")
	ErrDimensionMismatch = errors.New("frame dimensions do not match")
	ErrLoadInProgress    = errors.New("a load is already in progress")
	ErrCapacityExceeded  = errors.New("frame memory capacity exceeded")
	ErrSetBusy           = errors.New("set is still loading")
)

// Store loads sequences from a FrameSource. At most one background load runs
// at a time, and buffers only become visible once they are completely filled.
type Store struct {
	Source     FrameSource
	MaxBytes   int64        // ceiling on resident frame memory; 0 means no limit
	Expect     image.Point  // if non-zero, every layer of a set must be this size
	Verbosity  int

	busy       atomic.Bool
	resident   atomic.Int64
}

func NewStore(src FrameSource, maxBytes int64) *Store {
	return &Store{Source:src, MaxBytes:maxBytes}
}

// Loading reports whether a background load is running.
func (s *Store)Loading() bool { return s.busy.Load() }

// ResidentBytes is the frame memory currently held by loaded buffers.
func (s *Store)ResidentBytes() int64 { return s.resident.Load() }

func (s *Store)reserve(n int64) error {
	for {
		cur := s.resident.Load()
		if s.MaxBytes > 0 && cur + n > s.MaxBytes {
			return fmt.Errorf("need %d bytes, %d of %d in use: %w", n, cur, s.MaxBytes, ErrCapacityExceeded)
		}
		if s.resident.CompareAndSwap(cur, cur+n) {
			return nil
		}
	}
}

func (s *Store)release(n int64) { s.resident.Add(-n) }

// Free gives back a buffer returned by Load.
func (s *Store)Free(fb *FrameBuffer) {
	if fb == nil || fb.Pix == nil { return }
	s.release(fb.Bytes())
	fb.Release()
}

// Load synchronously reads every frame of sequence `id` into a new buffer.
// It fails if there are no frames, if any frame disagrees with the first
// one's size, or if the buffer would push resident memory past MaxBytes.
func (s *Store)Load(id string) (*FrameBuffer, error) {
	return s.fill(id, image.Point{}, nil)
}

// fill does the work of a load. If `want` is non-zero every frame must be
// that size. Progress is counted into j when it is non-nil.
func (s *Store)fill(id string, want image.Point, j *Job) (*FrameBuffer, error) {
	paths, err := s.Source.Enumerate(id)
	if err != nil {
		return nil, fmt.Errorf("enumerate '%s': %v", id, err)
	} else if len(paths) == 0 {
		return nil, fmt.Errorf("'%s': %w", id, ErrNoFrames)
	}

	first, err := s.Source.Decode(paths[0])
	if err != nil {
		return nil, err
	}
	size := first.Bounds().Size()
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("'%s' first frame is %dx%d: %w", id, size.X, size.Y, ErrNoFrames)
	} else if want != (image.Point{}) && size != want {
		return nil, fmt.Errorf("'%s' is %v, expected %v: %w", id, size, want, ErrDimensionMismatch)
	}

	need := BufferBytes(len(paths), size.X, size.Y)
	if err := s.reserve(need); err != nil {
		return nil, fmt.Errorf("'%s': %w", id, err)
	}

	if s.Verbosity > 0 {
		log.Printf("Loading %d frames (%dx%d) from %s\n", len(paths), size.X, size.Y, id)
	}

	fb := NewFrameBuffer(len(paths), size.X, size.Y)
	for i, p := range paths {
		img := first
		if i > 0 {
			if img, err = s.Source.Decode(p); err != nil {
				s.release(need)
				return nil, err
			}
		}
		if img.Bounds().Size() != size {
			s.release(need)
			return nil, fmt.Errorf("'%s' is %v, first frame was %v: %w", p, img.Bounds().Size(), size, ErrDimensionMismatch)
		}
		fb.put(i, img)
		if j != nil {
			j.loaded.Add(1)
		}
	}

	return fb, nil
}

// LoadAsync starts loading sequence `id` in the background. The result is
// collected from the Job once it is done.
func (s *Store)LoadAsync(id string) (*Job, error) {
	if !s.busy.CompareAndSwap(false, true) {
		log.Printf("framestore: asked to load '%s' while another load is running\n", id)
		return nil, ErrLoadInProgress
	}

	j := newJob(id)
	go func() {
		buf, err := s.fill(id, image.Point{}, j)
		j.buf, j.err = buf, err
		j.total.Store(int64(j.FramesLoaded()))
		s.busy.Store(false)
		close(j.done)
	}()

	return j, nil
}

// LoadSet loads every layer of a set in the background. All layers must
// share one frame size, and match Expect if that is set. The layers' buffers
// are published, and the set marked loaded, only after the last layer has
// loaded; on failure nothing is published and the memory is given back.
func (s *Store)LoadSet(set *Set) (*Job, error) {
	if set.Loaded() {
		return doneJob(set.Path, nil), nil
	}
	if !s.busy.CompareAndSwap(false, true) {
		log.Printf("framestore: asked to load %s while another load is running\n", set.Path)
		return nil, ErrLoadInProgress
	}
	set.loading.Store(true)

	j := newJob(set.Path)
	for _, l := range set.Layers {
		j.total.Add(int64(l.FrameCount))
	}

	go func() {
		j.err = s.loadSetLayers(set, j)
		if j.err != nil {
			log.Printf("framestore: load of %s failed: %v\n", set.Path, j.err)
		} else if s.Verbosity > 0 {
			log.Printf("framestore: %s loaded, %d bytes resident\n", set.Path, s.ResidentBytes())
		}
		set.loading.Store(false)
		s.busy.Store(false)
		close(j.done)
	}()

	return j, nil
}

func (s *Store)loadSetLayers(set *Set, j *Job) error {
	if len(set.Layers) == 0 {
		return fmt.Errorf("set '%s': %w", set.Path, ErrNoFrames)
	}

	bufs := make([]*FrameBuffer, len(set.Layers))
	size := s.Expect

	for i, l := range set.Layers {
		fb, err := s.fill(l.Path, size, j)
		if err != nil {
			for _, done := range bufs[:i] {
				s.Free(done)
			}
			return fmt.Errorf("set '%s' layer %d: %w", set.Path, l.Index, err)
		}
		bufs[i] = fb
		size = fb.Size()
	}

	for i, l := range set.Layers {
		l.buf.Store(bufs[i])
	}
	set.loaded.Store(true)

	return nil
}

// Unload drops a set's buffers. A set still being loaded can't be unloaded.
func (s *Store)Unload(set *Set) error {
	if set.Loading() {
		return fmt.Errorf("unload %s: %w", set.Path, ErrSetBusy)
	}

	set.loaded.Store(false)
	for _, l := range set.Layers {
		if fb := l.buf.Swap(nil); fb != nil {
			s.Free(fb)
		}
	}

	if s.Verbosity > 0 {
		log.Printf("framestore: unloaded %s, %d bytes resident\n", set.Path, s.ResidentBytes())
	}
	return nil
}

// A Job tracks one background load.
type Job struct {
	ID      string

	total   atomic.Int64
	loaded  atomic.Int64
	done    chan struct{}

	// Only valid once done is closed.
	buf     *FrameBuffer
	err     error
}

func newJob(id string) *Job {
	return &Job{ID:id, done:make(chan struct{})}
}

func doneJob(id string, err error) *Job {
	j := newJob(id)
	j.err = err
	close(j.done)
	return j
}

func (j *Job)FramesLoaded() int { return int(j.loaded.Load()) }

// FrameCount is the number of frames the job expects to load. For a set this
// comes from discovery; for a single sequence it is only known at the end.
func (j *Job)FrameCount() int { return int(j.total.Load()) }

func (j *Job)Done() <-chan struct{} { return j.done }

// Finished polls without blocking.
func (j *Job)Finished() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the job is done and returns its error.
func (j *Job)Wait() error {
	<-j.done
	return j.err
}

// Err is the outcome of the load; nil while it is still running.
func (j *Job)Err() error {
	if !j.Finished() { return nil }
	return j.err
}

// Buffer is the loaded sequence from LoadAsync, nil until done or on failure.
func (j *Job)Buffer() *FrameBuffer {
	if !j.Finished() { return nil }
	return j.buf
}
