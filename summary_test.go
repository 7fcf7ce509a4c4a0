//go:build !tinygo

package main

import (
	"strings"
	"testing"

	"picoheld/app"
	"picoheld/hal"
)

func TestSummaryListsSettings(t *testing.T) {
	cfg := app.Config{
		SourceWidth:  320,
		SourceHeight: 200,
		Rotation:     270,
		Filter:       "nearest",
		RingCapacity: 16384,
		ChunkDivisor: 8,
		SampleRate:   44100,
		Ratio:        "24:8",
		MusicPath:    "track.tea",
	}
	out := summary(cfg, hal.HeadlessConfig{Enabled: true, Hz: 60, Ticks: 120}, "")
	for _, want := range []string{"headless 60 Hz, 120 ticks", "320x200", "270°", "16384 bytes / 8 chunks", "track.tea"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "record") {
		t.Error("summary lists an unset record path")
	}
}
