// Package scheduler cycles through sets: it keeps the current one playing,
// loads the next one behind it, and moves on when the current set's time is
// up.
package scheduler

import(
	"fmt"
	"log"
	"time"

	"github.com/abworrall/temporalmask/pkg/framestore"
	"github.com/abworrall/temporalmask/pkg/selector"
)

type State int

const(
	Idle State = iota  // nothing to show, and nothing being loaded for it
	Loading            // waiting for the current set to load
	Playing            // current set loaded and on screen
)

func (s State)String() string {
	switch s {
	case Idle:    return "idle"
	case Loading: return "loading"
	case Playing: return "playing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Scheduler is driven from the render goroutine, one Tick per frame. It never
// blocks on a load; it polls the store's job instead. The set being loaded is
// never the one being shown.
type Scheduler struct {
	Store      *framestore.Store
	Sets     []*framestore.Set
	Envelope    selector.Envelope
	Verbosity   int

	state       State
	current     int
	setStart    time.Time
	err         error

	pending    *framestore.Job
	pendingIdx  int
	failed      map[int]bool // sets whose load failed since the last advance; not retried
}

func New(store *framestore.Store, sets []*framestore.Set, env selector.Envelope) *Scheduler {
	return &Scheduler{
		Store:    store,
		Sets:     sets,
		Envelope: env,
		failed:   map[int]bool{},
	}
}

func (s *Scheduler)String() string {
	str := fmt.Sprintf("scheduler: %s, set %d/%d", s.state, s.current+1, len(s.Sets))
	if s.pending != nil {
		str += fmt.Sprintf(", loading %s (%d/%d)", s.pending.ID, s.pending.FramesLoaded(), s.pending.FrameCount())
	}
	if s.err != nil {
		str += fmt.Sprintf(", err: %v", s.err)
	}
	return str
}

func (s *Scheduler)State() State { return s.state }
func (s *Scheduler)Err() error   { return s.err }
func (s *Scheduler)CurrentIndex() int { return s.current }

// Pending is the background load in flight, if any.
func (s *Scheduler)Pending() *framestore.Job { return s.pending }

// Current is the set to render, or nil when nothing is playing.
func (s *Scheduler)Current() *framestore.Set {
	if s.state != Playing { return nil }
	return s.Sets[s.current]
}

// Elapsed is how long the current set has been playing.
func (s *Scheduler)Elapsed(now time.Time) time.Duration {
	if s.state != Playing { return 0 }
	return now.Sub(s.setStart)
}

// Multiplier is the current set's envelope value, for cross fading.
func (s *Scheduler)Multiplier(now time.Time) float64 {
	if s.state != Playing { return 0 }
	return s.Envelope.Multiplier(s.Elapsed(now))
}

// SetAutoAdvance switches auto advance, and puts the current set at the end
// of its fade in.
func (s *Scheduler)SetAutoAdvance(on bool, now time.Time) {
	s.Envelope.AutoAdvance = on
	s.setStart = now.Add(-s.Envelope.FadeIn)
}

func (s *Scheduler)next() int { return (s.current + 1) % len(s.Sets) }

// Tick moves the state machine along. Call it once per frame, before
// rendering.
func (s *Scheduler)Tick(now time.Time) {
	if len(s.Sets) == 0 {
		return
	}

	s.collect()

	switch s.state {
	case Idle:
		if s.err != nil {
			return // stays put until Advance
		}
		s.state = Loading
		s.waitForCurrent(now)

	case Loading:
		s.waitForCurrent(now)

	case Playing:
		if s.Envelope.AutoAdvance && s.Elapsed(now) > s.Envelope.Total() {
			s.advance(now)
			return
		}
		s.prefetch()
	}
}

// Advance moves to the next set right away, whatever the envelope says.
func (s *Scheduler)Advance(now time.Time) {
	if len(s.Sets) == 0 {
		return
	}
	s.collect()
	s.advance(now)
}

func (s *Scheduler)advance(now time.Time) {
	s.current = s.next()
	s.err = nil
	s.failed = map[int]bool{}

	if s.Verbosity > 0 {
		log.Printf("Scheduler: advancing to %s\n", s.Sets[s.current].Path)
	}

	s.unloadStale()
	s.state = Loading
	s.waitForCurrent(now)
}

// waitForCurrent starts playing the current set if it has loaded, or starts
// loading it if nothing else is.
func (s *Scheduler)waitForCurrent(now time.Time) {
	if s.state != Loading {
		return
	}
	cur := s.Sets[s.current]

	switch {
	case cur.Loaded():
		s.play(now)
	case s.pending == nil && !cur.Loading():
		s.startLoad(s.current)
	}
}

func (s *Scheduler)play(now time.Time) {
	cur := s.Sets[s.current]
	s.state = Playing
	s.setStart = now
	cur.ResetClocks(now)

	log.Printf("Scheduler: playing %s\n", cur.Path)

	s.unloadStale()
	s.prefetch()
}

// prefetch loads the next set while the current one plays.
func (s *Scheduler)prefetch() {
	if len(s.Sets) < 2 || s.pending != nil || s.Store.Loading() {
		return
	}
	n := s.next()
	if set := s.Sets[n]; set.Loaded() || set.Loading() || s.failed[n] {
		return
	}
	s.startLoad(n)
}

func (s *Scheduler)startLoad(idx int) {
	j, err := s.Store.LoadSet(s.Sets[idx])
	if err != nil {
		return // the store is busy; try again next tick
	}
	s.pending = j
	s.pendingIdx = idx
}

// collect picks up a finished background load.
func (s *Scheduler)collect() {
	if s.pending == nil || !s.pending.Finished() {
		return
	}
	j, idx := s.pending, s.pendingIdx
	s.pending = nil

	if err := j.Err(); err != nil {
		log.Printf("Scheduler: loading %s failed: %v\n", s.Sets[idx].Path, err)
		s.failed[idx] = true
		if idx == s.current && s.state != Playing {
			s.err = err
			s.state = Idle
		}
	}
}

// unloadStale frees every set other than the current and next ones.
func (s *Scheduler)unloadStale() {
	keep := map[int]bool{s.current: true, s.next(): true}
	for i, set := range s.Sets {
		if keep[i] || !set.Loaded() {
			continue
		}
		if err := s.Store.Unload(set); err != nil {
			log.Printf("Scheduler: %v\n", err)
		}
	}
}
