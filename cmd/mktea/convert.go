package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"picoheld/media/stream"
	"picoheld/media/tea"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

type encodeOptions struct {
	codec           string
	samplesPerBlock int
	mono            bool
	loop            bool
}

// pcm is decoded interleaved 16-bit audio.
type pcm struct {
	rate     int
	channels int
	data     []int16
}

func (p pcm) frames() int { return len(p.data) / p.channels }

func encodeFile(inPath, outPath string, opts encodeOptions) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	var src pcm
	switch ext := strings.ToLower(filepath.Ext(inPath)); ext {
	case ".wav":
		src, err = readWAV(in)
	case ".mp3":
		src, err = readMP3(in)
	default:
		err = fmt.Errorf("unsupported input %q", ext)
	}
	if err != nil {
		return err
	}
	if opts.mono {
		src = downmix(src)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(out, 64*1024)
	if err := encodeTEA(bw, src, opts); err != nil {
		out.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func readWAV(r io.ReadSeeker) (pcm, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return pcm{}, errors.New("wav: not a valid wav file")
	}
	if dec.WavAudioFormat != 1 {
		return pcm{}, fmt.Errorf("wav: only PCM is supported (format=%d)", dec.WavAudioFormat)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return pcm{}, fmt.Errorf("wav: %w", err)
	}
	ch := int(dec.NumChans)
	if ch < 1 || ch > 2 {
		return pcm{}, fmt.Errorf("wav: %d channels", ch)
	}
	depth := int(dec.BitDepth)
	data := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		data[i] = stream.ToInt16(v, depth)
	}
	return pcm{rate: int(dec.SampleRate), channels: ch, data: data}, nil
}

// readMP3 decodes the whole stream. go-mp3 always yields 16-bit stereo.
func readMP3(r io.Reader) (pcm, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return pcm{}, fmt.Errorf("mp3: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return pcm{}, fmt.Errorf("mp3: %w", err)
	}
	data := make([]int16, len(raw)/2)
	for i := range data {
		data[i] = int16(uint16(raw[i*2]) | uint16(raw[i*2+1])<<8)
	}
	return pcm{rate: dec.SampleRate(), channels: 2, data: data}, nil
}

func downmix(p pcm) pcm {
	if p.channels == 1 {
		return p
	}
	out := make([]int16, p.frames())
	for i := range out {
		out[i] = int16((int(p.data[i*2]) + int(p.data[i*2+1])) / 2)
	}
	return pcm{rate: p.rate, channels: 1, data: out}
}

func parseCodec(s string) (uint8, error) {
	switch strings.ToLower(s) {
	case "pcm16":
		return tea.CodecPCM16, nil
	case "ima-adpcm", "adpcm":
		return tea.CodecIMAADPCM, nil
	default:
		return 0, fmt.Errorf("unknown codec: %s", s)
	}
}

func encodeTEA(w io.Writer, src pcm, opts encodeOptions) error {
	codec, err := parseCodec(opts.codec)
	if err != nil {
		return err
	}
	if src.rate <= 0 || src.rate > 0xFFFF {
		return fmt.Errorf("sample rate %d does not fit a TEA header", src.rate)
	}
	if opts.samplesPerBlock <= 0 || opts.samplesPerBlock > 0xFFFF {
		return fmt.Errorf("spb out of range: %d", opts.samplesPerBlock)
	}
	if src.frames() == 0 {
		return errors.New("no audio")
	}
	h, err := tea.NewHeader(codec, uint16(src.rate), uint8(src.channels), uint16(opts.samplesPerBlock), uint32(src.frames()))
	if err != nil {
		return err
	}
	if opts.loop {
		h.Flags |= tea.FlagLoopEnabled
	}
	enc, err := tea.NewEncoder(w, h)
	if err != nil {
		return err
	}
	return enc.Write(src.data[:src.frames()*src.channels])
}

func decodeFile(inPath, outPath string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := decodeTEA(in, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// decodeTEA writes the stream as a 16-bit WAV with the source's channel count.
func decodeTEA(r io.ReadSeeker, w io.WriteSeeker) error {
	dec, err := tea.NewDecoder(r)
	if err != nil {
		return err
	}
	ch := int(dec.Header.Channels)
	rate := int(dec.Header.SampleRate)
	enc := wav.NewEncoder(w, rate, 16, ch, 1)
	frames := make([]int16, dec.FrameLen())
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: ch, SampleRate: rate},
		Data:           make([]int, 0, len(frames)),
		SourceBitDepth: 16,
	}
	for {
		n, err := dec.DecodeBlock(frames)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		buf.Data = buf.Data[:0]
		for _, v := range frames[:n*ch] {
			buf.Data = append(buf.Data, int(v))
		}
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("wav: %w", err)
		}
	}
	return enc.Close()
}
