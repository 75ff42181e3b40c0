package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"speechpdf/internal/record"
)

// Binary is the ffmpeg executable looked up on PATH.
var Binary = "ffmpeg"

// Args returns the ffmpeg arguments that convert any input into the chunk
// format: mono, 16 kHz, signed 16-bit little-endian PCM in a WAV container.
func Args(inPath, outPath string) []string {
	return []string{
		"-y", "-i", inPath,
		"-ac", strconv.Itoa(record.Channels),
		"-ar", strconv.Itoa(record.SampleRate),
		"-c:a", "pcm_s16le",
		outPath,
	}
}

// Convert runs ffmpeg to turn inPath into a chunk-format WAV at outPath.
func Convert(ctx context.Context, inPath, outPath string) error {
	bin, err := exec.LookPath(Binary)
	if err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	args := Args(inPath, outPath)
	slog.Debug("executing", "component", "ffmpeg", "cmd", bin+" "+strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w\n%s", err, stderr.String())
	}
	return nil
}
