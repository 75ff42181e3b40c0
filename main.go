package main

// speechpdf records a talk in fixed-length chunks, transcribes every chunk with
// SaluteSpeech and saves the transcript as a paginated PDF.
//
// Build notes:
// - Recording uses cgo via PortAudio; the native PortAudio library must be
//   installed.
// - The transcribe command needs ffmpeg on PATH for anything other than
//   16 kHz mono 16-bit WAV input.
// - Cyrillic text needs a UTF-8 TTF font (FONT_PATH, e.g. DejaVuSans.ttf).

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
