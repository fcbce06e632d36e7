package main

import(
	"bufio"
	"flag"
	"log"
	"os"
	"time"

	"github.com/abworrall/temporalmask/pkg/compositor"
	"github.com/abworrall/temporalmask/pkg/depth"
	"github.com/abworrall/temporalmask/pkg/emath"
	"github.com/abworrall/temporalmask/pkg/framestore"
)

var(
	fConfigFile string
	fVerbosity int
	fFramesDir string
	fSequence string
	fReplay string
	fReplayMaxDist int
	fTonemapper string
	fMaxFrameMB int64
	fWorkers int
	fFPS int
	fTicks int
	fRecord bool
	fOutputFilename string
)

func init() {
	flag.StringVar(&fConfigFile, "config", "config.yaml", "config file; created with defaults if missing, rewritten on every change")
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.StringVar(&fFramesDir, "frames", "", "folder holding set01/layer01/frame0001.png etc")
	flag.StringVar(&fSequence, "sequence", "", "play just this one folder of frames (relative to -frames), as a single set")
	flag.StringVar(&fReplay, "replay", "", "folder of recorded depth images to use instead of the synthetic figure")
	flag.IntVar(&fReplayMaxDist, "replaymaxdist", depth.DefaultMaxDist, "far limit for 16-bit depth recordings, in mm")
	flag.StringVar(&fTonemapper, "tonemapper", "", "how to tonemap .hdr frames: one of "+framestore.ListTonemappers())
	flag.Int64Var(&fMaxFrameMB, "maxmb", -1, "ceiling on frame memory, in MB; 0 for none")
	flag.IntVar(&fWorkers, "workers", 0, "compositing goroutines")
	flag.IntVar(&fFPS, "fps", 30, "render ticks per second")
	flag.IntVar(&fTicks, "ticks", 0, "stop after this many ticks; 0 runs until interrupted")
	flag.BoolVar(&fRecord, "record", false, "record from the start")
	flag.StringVar(&fOutputFilename, "o", "", "write the last rendered frame here on exit")
	flag.Parse()

	log.SetFlags(log.Ldate|log.Ltime)
	log.Printf("temporalmask starting\n")
}

func loadOrCreateConfig(filename string) compositor.Config {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		cfg := compositor.NewConfig()
		if err := cfg.Save(filename); err != nil {
			log.Fatal(err)
		}
		log.Printf("Wrote default configuration to %s\n", filename)
		return cfg
	}
	cfg, err := compositor.LoadConfig(filename)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func main() {
	cfg := loadOrCreateConfig(fConfigFile)

	// Override the config file with command line args, if relevant
	if fVerbosity > 0 { cfg.Verbosity = fVerbosity }
	if fFramesDir != "" { cfg.FramesDir = fFramesDir }
	if fTonemapper != "" { cfg.Tonemapper = fTonemapper }
	if fMaxFrameMB >= 0 { cfg.MaxFrameMB = fMaxFrameMB }
	if fWorkers > 0 { cfg.Workers = fWorkers }

	if cfg.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", cfg.AsYaml())
	}

	src := framestore.NewDirSource(cfg.FramesDir)
	src.Tonemapper = cfg.Tonemapper

	var sets []*framestore.Set
	if fSequence != "" {
		set, err := framestore.SingleSet(src, fSequence)
		if err != nil {
			log.Fatal(err)
		}
		sets = []*framestore.Set{set}
	} else {
		var err error
		if sets, err = framestore.DiscoverSets(src); err != nil {
			log.Fatal(err)
		}
	}

	size, err := framestore.FrameSize(src, sets)
	if err != nil {
		log.Fatalf("no frames under '%s': %v\n", cfg.FramesDir, err)
	}
	if total, largest, err := framestore.EstimateBytes(src, sets); err == nil {
		log.Printf("Frames are %dx%d; all sets need %d MB, the largest %d MB\n", size.X, size.Y, total>>20, largest>>20)
	}

	store := framestore.NewStore(src, cfg.MaxFrameMB<<20)
	store.Expect = size
	store.Verbosity = cfg.Verbosity

	var ds depth.Source
	if fReplay != "" {
		r, err := depth.NewReplay(framestore.NewDirSource("."), fReplay)
		if err != nil {
			log.Fatal(err)
		}
		r.MaxDist = uint16(fReplayMaxDist)
		ds = r
		cfg.Resample = true
	} else {
		ds = depth.NewPuppet(size.X, size.Y)
	}

	c, err := compositor.New(cfg, ds, store, sets, size)
	if err != nil {
		log.Fatal(err)
	}

	if fRecord {
		if err := c.ToggleRecording(time.Now()); err != nil {
			log.Fatal(err)
		}
	}

	run(c)

	if c.Recording() {
		c.ToggleRecording(time.Now())
	}
	if fOutputFilename != "" {
		if err := emath.WritePNG(c.Output, fOutputFilename); err != nil {
			log.Fatal(err)
		}
		log.Printf("Last frame written to '%s'\n", fOutputFilename)
	}
}

// run ticks the compositor at -fps, taking key commands from stdin.
func run(c *compositor.Compositor) {
	keys := make(chan byte)
	go func() {
		r := bufio.NewReader(os.Stdin)
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(keys)
				return
			}
			keys<- b
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(max(fFPS, 1)))
	defer ticker.Stop()
	report := time.NewTicker(10 * time.Second)
	defer report.Stop()

	for n:=0; fTicks == 0 || n < fTicks; {
		select {
		case now := <-ticker.C:
			if err := c.Tick(now); err != nil {
				log.Fatalf("tick: %v\n", err)
			}
			n++

		case <-report.C:
			log.Printf("%s\n", c)
			c.Stats.Reset()

		case k, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			handleKey(c, k)
		}
	}
}

// handleKey applies one key command. Changes to the config are written back
// to the config file straight away.
func handleKey(c *compositor.Compositor, k byte) {
	now := time.Now()
	cfg := c.Config
	save := true

	switch k {
	case 'n': cfg.NudgeNear(+1)
	case 'b': cfg.NudgeNear(-1)
	case 'f': cfg.NudgeFar(+1)
	case 'd': cfg.NudgeFar(-1)
	case 'k': cfg.NudgeFadeRate(+1)
	case 'j': cfg.NudgeFadeRate(-1)
	case '.': cfg.NudgeSetDuration(+1)
	case ',': cfg.NudgeSetDuration(-1)
	case ']': cfg.NudgeTilt(+0.5)
	case '[': cfg.NudgeTilt(-0.5)
	case 'a': cfg.AutoAdvance = !cfg.AutoAdvance
	case 'g': cfg.ShowGhost = !cfg.ShowGhost
	case 'r': cfg.ReverseTime = !cfg.ReverseTime

	case '\r', '\n':
		c.Scheduler.Advance(now)
		return
	case 'm':
		if err := c.ToggleRecording(now); err != nil {
			log.Printf("recording: %v\n", err)
		}
		return
	case 'w':
		if err := c.DumpMask("mask.png"); err != nil {
			log.Printf("dump: %v\n", err)
		}
		return
	case 'p':
		c.Brush(c.Builder.Width/2, c.Builder.Height/2)
		return
	case 'h':
		log.Printf("%s\n", c)
		return
	default:
		save = false
	}

	if !save {
		return
	}
	if err := c.Apply(cfg, now); err != nil {
		log.Printf("rejected: %v\n", err)
		return
	}
	if err := cfg.Save(fConfigFile); err != nil {
		log.Printf("%v\n", err)
	}
	log.Printf("near %d, far %d, fade %.0f, set %dms, tilt %.1f, auto %v, ghost %v, reverse %v\n",
		cfg.NearThreshold, cfg.FarThreshold, cfg.FadeRate, cfg.SetDurationMillis, cfg.TiltDegrees,
		cfg.AutoAdvance, cfg.ShowGhost, cfg.ReverseTime)
}
