// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ik5/soundstream"
	"github.com/ik5/soundstream/internal/logutil"
)

// settings is the merged view of flags, environment and config file.
type settings struct {
	LogLevel string             `mapstructure:"log_level"`
	LogFile  string             `mapstructure:"log_file"`
	Backend  string             `mapstructure:"backend"`
	Stream   soundstream.Config `mapstructure:"stream"`
}

func newViper() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)

	v.SetEnvPrefix("SOUNDSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v
}

func setViperDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("backend", backendFile)
	v.SetDefault("stream.poll_interval", "1ms")
}

// bind ties key to a flag. Lookup never returns nil for the flags this
// package defines, so a failure is a programming error.
func (a *app) bind(key string, f *pflag.Flag) {
	if err := a.v.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("bind %s: %v", key, err))
	}
}

// loadSettings reads file, or soundstream.yaml from the working
// directory when file is empty. A missing default file is not an error.
func loadSettings(v *viper.Viper, file string) (settings, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("soundstream")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("decode config: %w", err)
	}

	if _, _, err := logutil.ParseLevel(s.LogLevel); err != nil {
		return settings{}, err
	}
	if err := s.Stream.Validate(); err != nil {
		return settings{}, err
	}

	return s, nil
}

func joinLevels() string { return strings.Join(logutil.Levels, ", ") }
