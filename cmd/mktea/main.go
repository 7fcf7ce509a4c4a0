// Command mktea converts between WAV/MP3 and the TEA container the music
// stream plays.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

func main() {
	var (
		inPath  = flag.String("in", "", "Input file (.wav or .mp3 to encode, .tea to decode).")
		outPath = flag.String("out", "", "Output file (.tea for encode, .wav for decode).")
		mode    = flag.String("mode", "encode", "encode|decode.")
		codec   = flag.String("codec", "ima-adpcm", "pcm16|ima-adpcm (encode mode only).")
		spb     = flag.Int("spb", 512, "Frames per block.")
		mono    = flag.Bool("mono", false, "Downmix to one channel (encode mode only).")
		loop    = flag.Bool("loop", false, "Mark the stream as looping (encode mode only).")
	)
	flag.Parse()

	if *inPath == "" || *outPath == "" {
		fatalf("usage: mktea -mode encode -in in.wav|in.mp3 -out out.tea [-codec pcm16|ima-adpcm] [-spb 512] [-mono] [-loop]\n       mktea -mode decode -in in.tea -out out.wav")
	}

	switch strings.ToLower(*mode) {
	case "encode":
		opts := encodeOptions{codec: *codec, samplesPerBlock: *spb, mono: *mono, loop: *loop}
		if err := encodeFile(*inPath, *outPath, opts); err != nil {
			fatalf("encode: %v", err)
		}
	case "decode":
		if err := decodeFile(*inPath, *outPath); err != nil {
			fatalf("decode: %v", err)
		}
	default:
		fatalf("unknown mode: %s", *mode)
	}
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}
