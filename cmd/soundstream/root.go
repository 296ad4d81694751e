// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ik5/soundstream/device"
	"github.com/ik5/soundstream/device/filedev"
	"github.com/ik5/soundstream/device/portaudio"
	"github.com/ik5/soundstream/internal/logutil"
)

// app is shared by every subcommand of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	conf    settings
	logFile *os.File
}

func newRootCmd() *cobra.Command {
	a := &app{v: newViper()}

	root := &cobra.Command{
		Use:           "soundstream",
		Short:         "Audio stream event engine",
		Long:          `soundstream drives audio devices and files through a paced event loop.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ./soundstream.yaml)")
	pf.String("log-level", "info", "log level: "+joinLevels())
	pf.String("log-file", "", "write JSON logs to this file instead of stderr")
	pf.String("backend", backendFile, "device backend: file or portaudio")
	pf.Int("sample-rate", 0, "sample rate in Hz (0 uses the device default)")
	pf.Int("frames-per-buffer", 0, "device buffer size in frames")
	a.bind("log_level", pf.Lookup("log-level"))
	a.bind("log_file", pf.Lookup("log-file"))
	a.bind("backend", pf.Lookup("backend"))
	a.bind("stream.sample_rate", pf.Lookup("sample-rate"))
	a.bind("stream.frames_per_buffer", pf.Lookup("frames-per-buffer"))

	root.AddCommand(newCopyCmd(a), newToneCmd(a), newDevicesCmd(a))

	return root
}

func (a *app) setup() error {
	conf, err := loadSettings(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.conf = conf

	f, err := logutil.ConfigureDefaultLogger(conf.LogLevel, conf.LogFile)
	if err != nil {
		return err
	}
	a.logFile = f

	slog.Debug("settings loaded", "config", a.v.ConfigFileUsed(), "backend", conf.Backend)
	return nil
}

func (a *app) teardown() error {
	if a.logFile == nil {
		return nil
	}
	err := a.logFile.Close()
	a.logFile = nil
	return err
}

const (
	backendFile      = "file"
	backendPortAudio = "portaudio"
)

// host builds the configured backend. opts only applies to the file
// backend.
func (a *app) host(opts filedev.Options) (device.Host[float32, float32], error) {
	switch a.conf.Backend {
	case backendFile:
		if opts.Logger == nil {
			opts.Logger = slog.Default()
		}
		return filedev.New[float32, float32](opts), nil
	case backendPortAudio:
		return portaudio.New[float32, float32](slog.Default()), nil
	}
	return nil, fmt.Errorf("unknown backend %q, want %s or %s", a.conf.Backend, backendFile, backendPortAudio)
}
