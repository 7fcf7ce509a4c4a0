//go:build !tinygo

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"picoheld/app"
	"picoheld/hal"
)

func main() {
	var (
		cfg      app.Config
		headless hal.HeadlessConfig
		record   string
	)
	flag.BoolVar(&headless.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&headless.Hz, "hz", 60, "Tick rate in headless mode.")
	flag.Uint64Var(&headless.Ticks, "ticks", 0, "Quit after N ticks in headless mode (0 = run until interrupted).")
	flag.BoolVar(&headless.Audio, "audio", false, "Play audio in headless mode.")

	flag.IntVar(&cfg.SourceWidth, "width", app.DefaultSourceWidth, "Source frame width.")
	flag.IntVar(&cfg.SourceHeight, "height", app.DefaultSourceHeight, "Source frame height.")
	flag.IntVar(&cfg.Rotation, "rotate", 0, "Clockwise rotation onto the panel: 0, 90, 180 or 270.")
	flag.BoolVar(&cfg.MirrorX, "mirror-x", false, "Mirror horizontally.")
	flag.BoolVar(&cfg.MirrorY, "mirror-y", false, "Mirror vertically.")
	flag.StringVar(&cfg.Filter, "filter", "nearest", "Scaling filter: nearest or bilinear.")

	flag.IntVar(&cfg.RingCapacity, "ring", app.DefaultRingCapacity, "Audio ring capacity in bytes (power of two).")
	flag.IntVar(&cfg.ChunkDivisor, "chunks", app.DefaultChunkDivisor, "Mixer cycles per ring revolution.")
	var rate uint
	flag.UintVar(&rate, "rate", app.DefaultSampleRate, "Output sample rate.")
	flag.StringVar(&cfg.Ratio, "ratio", "24:8", "Music to game audio weighting.")
	flag.Float64Var(&cfg.MainVolume, "volume", 1, "Output volume, 0..1.")
	flag.Float64Var(&cfg.MusicVolume, "music-volume", 1, "Music volume, 0..1.")
	flag.StringVar(&cfg.MusicPath, "music", "", "Music file (.tea, .mp3, .wav, .pcm).")
	flag.BoolVar(&cfg.LoopMusic, "loop", true, "Loop the music file.")
	flag.StringVar(&record, "record", "", "Record the mixed output to a WAV file.")
	flag.StringVar(&cfg.EndScreenPath, "end-screen", "", "Raw 80x25 text memory shown at quit.")
	flag.BoolVar(&cfg.Demo, "demo", true, "Run the built-in demo producer.")
	flag.Parse()
	cfg.SampleRate = uint32(rate)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	fmt.Println(summary(cfg, headless, record))

	var rec *hal.WAVRecorder
	newApp := func(h hal.HAL) func() error {
		if record != "" {
			rec = hal.NewWAVRecorder(record, h.Audio())
			h = recordingHAL{HAL: h, audio: rec}
		}
		return app.NewStep(cfg, nil)(h)
	}

	var err error
	if headless.Enabled {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err = hal.RunHeadless(ctx, newApp, headless)
	} else {
		err = hal.RunWindow(newApp)
	}
	if rec != nil && rec.DeviceErr() != nil {
		fmt.Fprintf(os.Stderr, "recorded without audio output: %v\n", rec.DeviceErr())
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// recordingHAL swaps the audio sink for a recorder that tees into it.
type recordingHAL struct {
	hal.HAL
	audio hal.AudioOut
}

func (h recordingHAL) Audio() hal.AudioOut { return h.audio }
