// setcheck loads every layer of every set in a frames folder, to check that
// they will all load at install time, and reports how much memory they need.
package main

import(
	"flag"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/abworrall/temporalmask/pkg/emath"
	"github.com/abworrall/temporalmask/pkg/framestore"
)

var(
	fFramesDir string
	fTonemapper string
	fWorkers int
	fContactSheet string
)

func init() {
	flag.StringVar(&fFramesDir, "frames", "data", "folder holding set01/layer01/frame0001.png etc")
	flag.StringVar(&fTonemapper, "tonemapper", "linear", "how to tonemap .hdr frames: one of "+framestore.ListTonemappers())
	flag.IntVar(&fWorkers, "workers", 4, "how many layers to load at once")
	flag.StringVar(&fContactSheet, "sheet", "", "if set, write the middle frame of each layer to <sheet>-setNN-layerNN.png")
	flag.Parse()

	log.SetFlags(log.Ldate|log.Ltime)
}

type checkJob struct {
	// Inputs for the job
	Set     *framestore.Set
	Layer   *framestore.Layer

	// Output
	Frames   int
	Width    int
	Height   int
	Err      error
}

func (j checkJob)String() string {
	if j.Err != nil {
		return fmt.Sprintf("%-20s FAILED: %v", j.Layer.Path, j.Err)
	}
	return fmt.Sprintf("%-20s %5d frames, %dx%d, %6d MB", j.Layer.Path, j.Frames, j.Width, j.Height,
		framestore.BufferBytes(j.Frames, j.Width, j.Height)>>20)
}

// checkConcurrently uses a pool of goroutines to load each layer, one store
// per worker.
func checkConcurrently(src framestore.FrameSource, sets []*framestore.Set) []checkJob {
	var wg sync.WaitGroup
	jobs := []checkJob{}
	for _, s := range sets {
		for _, l := range s.Layers {
			jobs = append(jobs, checkJob{Set:s, Layer:l})
		}
	}
	jobsChan    := make(chan int, len(jobs))
	resultsChan := make(chan checkJob, len(jobs))

	for i:=0; i<max(fWorkers, 1); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store := framestore.NewStore(src, 0)
			for idx := range jobsChan {
				resultsChan<- check(store, jobs[idx])
			}
		}()
	}

	for i := range jobs {
		jobsChan<- i
	}
	close(jobsChan)
	wg.Wait()
	close(resultsChan)

	results := map[*framestore.Layer]checkJob{}
	for r := range resultsChan {
		results[r.Layer] = r
	}
	for i := range jobs {
		jobs[i] = results[jobs[i].Layer]
	}
	return jobs
}

func check(store *framestore.Store, job checkJob) checkJob {
	fb, err := store.Load(job.Layer.Path)
	if err != nil {
		job.Err = err
		return job
	}
	defer store.Free(fb)

	job.Frames, job.Width, job.Height = fb.FrameCount, fb.Width, fb.Height
	if fContactSheet != "" {
		filename := fmt.Sprintf("%s-set%02d-layer%02d.png", fContactSheet, job.Set.Index+1, job.Layer.Index+1)
		if err := emath.WritePNG(fb.FrameImage(fb.FrameCount/2), filename); err != nil {
			job.Err = err
		}
	}
	return job
}

func main() {
	src := framestore.NewDirSource(fFramesDir)
	src.Tonemapper = fTonemapper

	sets, err := framestore.DiscoverSets(src)
	if err != nil {
		log.Fatal(err)
	} else if len(sets) == 0 {
		log.Fatalf("no sets under '%s'\n", fFramesDir)
	}

	results := checkConcurrently(src, sets)

	failed := 0
	size := [2]int{}
	var total, largest int64
	for _, s := range sets {
		setBytes := int64(0)
		for _, r := range results {
			if r.Set != s { continue }
			log.Printf("%s\n", r)
			if r.Err != nil {
				failed++
				continue
			}
			if size == [2]int{} {
				size = [2]int{r.Width, r.Height}
			} else if size != [2]int{r.Width, r.Height} {
				log.Printf("%s: %dx%d, but the first layer was %dx%d\n", r.Layer.Path, r.Width, r.Height, size[0], size[1])
				failed++
			}
			setBytes += framestore.BufferBytes(r.Frames, r.Width, r.Height)
		}
		total += setBytes
		if setBytes > largest { largest = setBytes }
	}

	log.Printf("%d sets, %d MB in all; playing needs about %d MB (the two largest sets)\n", len(sets), total>>20, (2*largest)>>20)

	if failed > 0 {
		log.Printf("%d problems\n", failed)
		os.Exit(1)
	}
}
