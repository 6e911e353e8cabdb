// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     cmd
// Description: devices command
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/msto63/aichat/internal/speech/audio"
)

var devicesOutput bool

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	Long: `Lists the microphones PortAudio can open. Use a name with --input-device
or capture.input_device. With --output the playback devices are listed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		host, err := audio.OpenHost()
		if err != nil {
			return err
		}
		defer host.Close()

		list := audio.ListInputDevices
		if devicesOutput {
			list = audio.ListOutputDevices
		}
		devices, err := list()
		if err != nil {
			return err
		}
		printDevices(cmd.OutOrStdout(), devices, devicesOutput)
		return nil
	},
}

func init() {
	devicesCmd.Flags().BoolVar(&devicesOutput, "output", false, "List output devices instead")
	rootCmd.AddCommand(devicesCmd)
}

func printDevices(w io.Writer, devices []audio.DeviceInfo, output bool) {
	if len(devices) == 0 {
		fmt.Fprintln(w, "No devices found")
		return
	}
	for _, d := range devices {
		mark := " "
		if d.IsDefault {
			mark = "*"
		}
		channels := d.MaxInputChannels
		if output {
			channels = d.MaxOutputChannels
		}
		fmt.Fprintf(w, "%s %-40s %-16s %d ch  %.0f Hz\n", mark, d.Name, d.HostAPI, channels, d.DefaultSampleRate)
	}
}
