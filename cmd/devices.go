// SPDX-License-Identifier: MIT
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"rhythm/internal/audio"
	"rhythm/internal/tui"
)

func newDevicesCommand(a *app) *cobra.Command {
	devicesCmd := &cobra.Command{
		Use:     "devices",
		Aliases: []string{"list"},
		Short:   "List available audio devices",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := audio.Initialize(); err != nil {
				return err
			}
			defer audio.Terminate()

			out := cmd.OutOrStdout()
			switch {
			case a.v.GetBool("interactive"):
				sel, err := tui.PickDevice(audio.HostDevices)
				if err != nil || sel == nil {
					return err
				}
				fmt.Fprintf(out, "# %s\naudio:\n  input_device: %d\n  sample_rate: %.0f\n",
					sel.Name, sel.DeviceID, sel.SampleRate)
				return nil

			case a.v.GetBool("json"):
				devices, err := audio.HostDevices()
				if err != nil {
					return err
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(devices)

			default:
				return audio.ListDevices(out)
			}
		},
	}
	devicesCmd.Flags().BoolP("interactive", "i", false,
		"Pick an input device and print the matching config snippet")
	devicesCmd.Flags().Bool("json", false, "Print the device list as JSON")
	return devicesCmd
}
