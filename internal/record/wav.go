package record

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Chunk audio format. Fixed: the recognizer is called with
// audio/x-pcm;bit=16;rate=16000 and expects mono.
const (
	SampleRate = 16000
	Channels   = 1
	BitDepth   = 16
)

// SamplesFor returns the number of frames captured for a chunk of length d.
func SamplesFor(d time.Duration) int {
	return int(d.Seconds() * SampleRate)
}

// WriteWAV writes mono 16-bit samples to path as a 16 kHz WAV file.
func WriteWAV(path string, samples []int16) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav failed: %w", err)
	}
	enc := wav.NewEncoder(f, SampleRate, BitDepth, Channels, 1)

	if len(samples) > 0 {
		data := make([]int, len(samples))
		for i, v := range samples {
			data[i] = int(v)
		}
		buf := &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: Channels, SampleRate: SampleRate},
			Data:           data,
			SourceBitDepth: BitDepth,
		}
		if err := enc.Write(buf); err != nil {
			_ = enc.Close()
			_ = f.Close()
			_ = os.Remove(path)
			return fmt.Errorf("wav write failed: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("wav close failed: %w", err)
	}
	return f.Close()
}

// ReadSamples decodes a chunk WAV and checks that it is 16 kHz mono 16-bit.
func ReadSamples(path string) ([]int16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav failed: %w", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid WAV file", path)
	}
	if d.SampleRate != SampleRate || d.NumChans != Channels || d.BitDepth != BitDepth {
		return nil, fmt.Errorf("%s: unsupported format %d Hz / %d ch / %d bit (want %d Hz / %d ch / %d bit)",
			path, d.SampleRate, d.NumChans, d.BitDepth, SampleRate, Channels, BitDepth)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav failed: %w", err)
	}
	out := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = int16(v)
	}
	return out, nil
}

// ReadPCM returns the raw little-endian PCM payload of a chunk WAV, without
// the RIFF header.
func ReadPCM(path string) ([]byte, error) {
	samples, err := ReadSamples(path)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 2*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
	}
	return out, nil
}
