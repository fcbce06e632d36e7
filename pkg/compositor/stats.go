package compositor

import(
	"fmt"
	"image"
	"log"
	"time"

	"github.com/codahale/hdrhistogram"
	"github.com/skypies/util/histogram"
)

// Ticks slower than this are recorded as this.
const maxLatencyMicros = int64(10 * time.Second / time.Microsecond)

// Stats accumulates how long ticks take, and what the mask looks like.
type Stats struct {
	Ticks    int
	Latency *hdrhistogram.Histogram  // microseconds per tick
	Levels   histogram.Histogram     // mask values, sampled
	Stride   int                     // every Stride'th mask pixel goes into Levels
}

func NewStats() *Stats {
	return &Stats{
		Latency: hdrhistogram.New(1, maxLatencyMicros, 3),
		Levels:  histogram.Histogram{NumBuckets:256, ValMin:0, ValMax:256},
		Stride:  61,
	}
}

func (s *Stats)Record(took time.Duration, m *image.Gray) {
	s.Ticks++
	if err := s.Latency.RecordValue(min(max(took.Microseconds(), 1), maxLatencyMicros)); err != nil {
		log.Printf("stats: %v\n", err)
	}

	if m == nil || s.Stride <= 0 { return }
	for i:=0; i<len(m.Pix); i+=s.Stride {
		s.Levels.Add(histogram.ScalarVal(int(m.Pix[i])))
	}
}

// Reset starts a new reporting period.
func (s *Stats)Reset() {
	s.Ticks = 0
	s.Latency.Reset()
	s.Levels = histogram.Histogram{NumBuckets:256, ValMin:0, ValMax:256}
}

func (s *Stats)String() string {
	return fmt.Sprintf("%d ticks, latency(us) mean %.0f, p50 %d, p99 %d, max %d",
		s.Ticks, s.Latency.Mean(), s.Latency.ValueAtQuantile(50), s.Latency.ValueAtQuantile(99), s.Latency.Max())
}
