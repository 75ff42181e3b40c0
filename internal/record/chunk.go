package record

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const chunkPrefix = "chunk_"

// ChunkName returns the file name of a chunk captured at t. seq keeps names
// unique when several chunks finish within the same second.
func ChunkName(t time.Time, seq int) string {
	return fmt.Sprintf("%s%s_%04d.wav", chunkPrefix, t.Format("20060102_150405"), seq)
}

// CleanupChunks removes every chunk WAV in dir and returns how many were removed.
func CleanupChunks(dir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, chunkPrefix+"*.wav"))
	if err != nil {
		return 0, err
	}
	var (
		removed int
		errs    []error
	)
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if err := os.Remove(path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// SplitWAV cuts a 16 kHz mono WAV into chunk files of length d inside dir.
// Chunk sequence numbers start at firstSeq. The final chunk may be shorter.
func SplitWAV(src, dir string, d time.Duration, firstSeq int) ([]string, error) {
	samples, err := ReadSamples(src)
	if err != nil {
		return nil, err
	}
	per := SamplesFor(d)
	if per <= 0 {
		return nil, fmt.Errorf("invalid chunk duration %v", d)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir failed: %w", err)
	}

	now := time.Now()
	var paths []string
	seq := firstSeq
	for start := 0; start < len(samples); start += per {
		end := min(start+per, len(samples))
		path := filepath.Join(dir, ChunkName(now, seq))
		if err := WriteWAV(path, samples[start:end]); err != nil {
			return paths, err
		}
		paths = append(paths, path)
		seq++
	}
	return paths, nil
}
