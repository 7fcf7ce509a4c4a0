//go:build !tinygo

package main

import (
	"fmt"
	"strings"

	"picoheld/app"
	"picoheld/hal"
	"picoheld/internal/buildinfo"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(7)).Background(lipgloss.ANSIColor(4)).Padding(0, 1)
	keyStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(3))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// summary renders the effective settings shown at startup.
func summary(cfg app.Config, headless hal.HeadlessConfig, record string) string {
	mode := "window"
	if headless.Enabled {
		mode = fmt.Sprintf("headless %d Hz", headless.Hz)
		if headless.Ticks > 0 {
			mode += fmt.Sprintf(", %d ticks", headless.Ticks)
		}
	}
	rows := [][2]string{
		{"mode", mode},
		{"source", fmt.Sprintf("%dx%d", cfg.SourceWidth, cfg.SourceHeight)},
		{"rotation", fmt.Sprintf("%d°", cfg.Rotation)},
		{"filter", cfg.Filter},
		{"ring", fmt.Sprintf("%d bytes / %d chunks", cfg.RingCapacity, cfg.ChunkDivisor)},
		{"rate", fmt.Sprintf("%d Hz", cfg.SampleRate)},
		{"ratio", cfg.Ratio},
		{"volume", fmt.Sprintf("%.2f / music %.2f", cfg.MainVolume, cfg.MusicVolume)},
	}
	if cfg.MirrorX || cfg.MirrorY {
		rows = append(rows, [2]string{"mirror", fmt.Sprintf("x=%t y=%t", cfg.MirrorX, cfg.MirrorY)})
	}
	if cfg.MusicPath != "" {
		rows = append(rows, [2]string{"music", cfg.MusicPath})
	}
	if record != "" {
		rows = append(rows, [2]string{"record", record})
	}

	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(keyStyle.Render(fmt.Sprintf("%-*s", width, r[0])))
		b.WriteString("  ")
		b.WriteString(r[1])
	}
	title := titleStyle.Render("picoheld " + buildinfo.Short())
	return lipgloss.JoinVertical(lipgloss.Left, title, boxStyle.Render(b.String()))
}
