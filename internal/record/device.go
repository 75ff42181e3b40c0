package record

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Device describes a capture device.
type Device struct {
	Name          string
	InputChannels int
	Default       bool
}

// ListDevices returns the input-capable devices known to PortAudio.
func ListDevices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init failed: %w", err)
	}
	defer portaudio.Terminate()

	devs, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices failed: %w", err)
	}
	def, _ := portaudio.DefaultInputDevice()
	return inputDevices(devs, def), nil
}

func inputDevices(devs []*portaudio.DeviceInfo, def *portaudio.DeviceInfo) []Device {
	var out []Device
	for _, d := range devs {
		if d == nil || d.MaxInputChannels <= 0 {
			continue
		}
		out = append(out, Device{
			Name:          d.Name,
			InputChannels: d.MaxInputChannels,
			Default:       def != nil && d.Name == def.Name,
		})
	}
	return out
}

func findInputDevice(devs []*portaudio.DeviceInfo, name string) *portaudio.DeviceInfo {
	if name == "" {
		return nil
	}
	for _, d := range devs {
		if d != nil && d.Name == name && d.MaxInputChannels > 0 {
			return d
		}
	}
	return nil
}
