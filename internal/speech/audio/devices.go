// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     audio
// Description: Device enumeration
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package audio

import (
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// DeviceInfo holds information about an audio device
type DeviceInfo struct {
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	IsDefault         bool
}

// ListInputDevices returns the available input devices. PortAudio must be
// initialized by a Host.
func ListInputDevices() ([]DeviceInfo, error) {
	return listDevices(true)
}

// ListOutputDevices returns the available output devices
func ListOutputDevices() ([]DeviceInfo, error) {
	return listDevices(false)
}

func listDevices(input bool) ([]DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}

	var def *portaudio.DeviceInfo
	if input {
		def, _ = portaudio.DefaultInputDevice()
	} else {
		def, _ = portaudio.DefaultOutputDevice()
	}

	var result []DeviceInfo
	for _, dev := range devices {
		if input && dev.MaxInputChannels == 0 {
			continue
		}
		if !input && dev.MaxOutputChannels == 0 {
			continue
		}
		info := DeviceInfo{
			Name:              dev.Name,
			MaxInputChannels:  dev.MaxInputChannels,
			MaxOutputChannels: dev.MaxOutputChannels,
			DefaultSampleRate: dev.DefaultSampleRate,
			IsDefault:         def != nil && dev.Name == def.Name,
		}
		if dev.HostApi != nil {
			info.HostAPI = dev.HostApi.Name
		}
		result = append(result, info)
	}
	return result, nil
}

// IsDefaultDevice reports whether name selects the system default device
func IsDefaultDevice(name string) bool {
	return name == "" || strings.EqualFold(name, "default")
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	return findDevice(name, true)
}

func findOutputDevice(name string) (*portaudio.DeviceInfo, error) {
	return findDevice(name, false)
}

func findDevice(name string, input bool) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}

	for _, dev := range devices {
		if dev.Name != name {
			continue
		}
		if input && dev.MaxInputChannels > 0 {
			return dev, nil
		}
		if !input && dev.MaxOutputChannels > 0 {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("device not found: %s", name)
}
