// Package record writes composited output to numbered PNGs, off the render
// goroutine.
package record

import(
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/abworrall/temporalmask/pkg/emath"
)

// DirLayout names a recording folder after the moment it started.
const DirLayout = "2006-01-02 15-04-05"

type frame struct {
	index  int
	img   *image.RGBA
}

// A Recorder owns a folder of frameNNNN.png files, and a small pool of
// goroutines encoding into it.
type Recorder struct {
	Dir       string

	frames    chan frame
	wg        sync.WaitGroup
	count     int

	mu        sync.Mutex
	err       error
}

// Start makes a new timestamped folder under parent and starts the writers.
func Start(parent string, now time.Time, workers int) (*Recorder, error) {
	dir := filepath.Join(parent, now.Format(DirLayout))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("recording dir '%s': %v", dir, err)
	}

	r := &Recorder{
		Dir:    dir,
		frames: make(chan frame, 64),
	}

	for i:=0; i<max(workers, 1); i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for f := range r.frames {
				r.write(f)
			}
		}()
	}

	log.Printf("Recording to %s\n", dir)
	return r, nil
}

func (r *Recorder)write(f frame) {
	filename := filepath.Join(r.Dir, fmt.Sprintf("frame%04d.png", f.index))
	if err := emath.WritePNG(f.img, filename); err != nil {
		r.mu.Lock()
		if r.err == nil { r.err = err }
		r.mu.Unlock()
	}
}

// Add queues a copy of img as the next frame. It blocks only if the writers
// have fallen well behind.
func (r *Recorder)Add(img *image.RGBA) {
	cp := image.NewRGBA(img.Rect)
	copy(cp.Pix, img.Pix)
	r.frames<- frame{r.count, cp}
	r.count++
}

func (r *Recorder)Count() int { return r.count }

// Stop waits for every queued frame to be written, and returns how many
// frames there were and the first write error, if any.
func (r *Recorder)Stop() (int, error) {
	close(r.frames)
	r.wg.Wait()
	log.Printf("Recorded %d frames to %s\n", r.count, r.Dir)
	return r.count, r.err
}
