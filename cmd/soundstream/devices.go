// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ik5/soundstream"
	"github.com/ik5/soundstream/device"
	"github.com/ik5/soundstream/device/filedev"
)

func newDevicesCmd(a *app) *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List the devices of the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			host, err := a.host(filedev.Options{Input: in, Output: out})
			if err != nil {
				return err
			}

			infos, err := soundstream.ListDevices(host)
			if err != nil {
				return err
			}

			printDevices(cmd.OutOrStdout(), host.Name(), infos)
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "input file to probe (file backend)")
	cmd.Flags().StringVar(&out, "out", "", "output file to list (file backend)")

	return cmd
}

func printDevices(w io.Writer, host string, infos []device.Info) {
	fmt.Fprintf(w, "%s: %d devices\n", host, len(infos))
	for _, d := range infos {
		fmt.Fprintf(w, "%3d  %-24s in:%-2d out:%-2d %6.0f Hz  latency %v/%v\n",
			d.Index, d.Name,
			d.MaxInputChannels, d.MaxOutputChannels,
			d.DefaultSampleRate,
			d.DefaultLowInputLatency, d.DefaultLowOutputLatency)
	}
}
