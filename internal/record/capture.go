package record

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

// PortAudio captures fixed-length chunks from a PortAudio input device.
type PortAudio struct {
	log *slog.Logger
}

// OpenPortAudio initializes PortAudio. Close must be called when done.
func OpenPortAudio() (*PortAudio, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init failed: %w", err)
	}
	return &PortAudio{log: slog.With("component", "record")}, nil
}

// Close releases PortAudio.
func (p *PortAudio) Close() error {
	return portaudio.Terminate()
}

// Capture blocks until samples mono frames have been read from the named
// device. An empty or unknown name selects the default input device.
// The device is looked up on every call, so a new selection applies to the
// next chunk.
func (p *PortAudio) Capture(ctx context.Context, device string, samples int) ([]int16, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("invalid sample count %d", samples)
	}
	dev, err := p.resolve(device)
	if err != nil {
		return nil, err
	}
	p.log.Debug("capture", "device", dev.Name, "samples", samples)

	in := make([]int16, framesPerBuffer)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: Channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      SampleRate,
		FramesPerBuffer: len(in),
	}
	stream, err := portaudio.OpenStream(params, in)
	if err != nil {
		return nil, fmt.Errorf("open stream failed: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start stream failed: %w", err)
	}
	defer stream.Stop()

	out := make([]int16, 0, samples)
	for len(out) < samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stream.Read(); err != nil {
			if err != portaudio.InputOverflowed {
				return nil, fmt.Errorf("stream read failed: %w", err)
			}
			p.log.Debug("input overflowed", "device", dev.Name)
		}
		n := min(len(in), samples-len(out))
		out = append(out, in[:n]...)
	}
	return out, nil
}

func (p *PortAudio) resolve(name string) (*portaudio.DeviceInfo, error) {
	if name != "" {
		devs, err := portaudio.Devices()
		if err != nil {
			return nil, fmt.Errorf("enumerate devices failed: %w", err)
		}
		if d := findInputDevice(devs, name); d != nil {
			return d, nil
		}
		p.log.Warn("device not found, using default input", "device", name)
	}
	d, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, fmt.Errorf("no default input device: %w", err)
	}
	return d, nil
}
