// Package config loads container settings from a YAML file, an optional .env file and
// INJECTOR_* environment variables.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	injector "github.com/gburgyan/go-injector"
)

// Environment variable prefix for settings, e.g. INJECTOR_STRICT.
const envPrefix = "INJECTOR"

// Setting keys, as written in the YAML file.
const (
	KeyStrict             = "strict"
	KeyDetectModuleCycles = "detect_module_cycles"
	KeyTiming             = "timing"
	KeyLogLevel           = "log_level"
)

// Settings configures a Container.
type Settings struct {
	Strict             bool
	DetectModuleCycles bool
	Timing             bool
	LogLevel           string
}

// Load reads settings from the YAML file at path and from the environment. A .env file
// next to path (or in the working directory when path is empty) is loaded first if it
// exists; variables already set in the environment are not overwritten. Environment
// variables take precedence over the file. A missing file is not an error.
func Load(path string) (*Settings, error) {
	envFile := ".env"
	if path != "" {
		envFile = filepath.Join(filepath.Dir(path), ".env")
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, configError("env", err, "reading %s", envFile)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault(KeyLogLevel, "info")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, configError("file", err, "reading %s", path)
			}
		}
	}

	s := &Settings{}
	flags := []struct {
		key    string
		target *bool
	}{
		{KeyStrict, &s.Strict},
		{KeyDetectModuleCycles, &s.DetectModuleCycles},
		{KeyTiming, &s.Timing},
	}
	for _, f := range flags {
		if !v.IsSet(f.key) {
			continue
		}
		b, err := cast.ToBoolE(v.Get(f.key))
		if err != nil {
			return nil, configError(f.key, err, "%q is not a boolean", v.Get(f.key))
		}
		*f.target = b
	}

	s.LogLevel = v.GetString(KeyLogLevel)
	if _, err := log.ParseLevel(s.LogLevel); err != nil {
		return nil, configError(KeyLogLevel, err, "unknown level %q", s.LogLevel)
	}
	return s, nil
}

// Options maps the settings onto container options. The log level is applied to logger,
// which may be nil to keep the container silent. Timing is only enabled when timingRoot is
// not nil; it should come from timing.Root.
func (s *Settings) Options(logger *log.Logger, timingRoot context.Context) ([]injector.Option, error) {
	opts := []injector.Option{
		injector.WithStrict(s.Strict),
		injector.WithModuleCycleDetection(s.DetectModuleCycles),
	}

	if logger != nil {
		if s.LogLevel != "" {
			level, err := log.ParseLevel(s.LogLevel)
			if err != nil {
				return nil, configError(KeyLogLevel, err, "unknown level %q", s.LogLevel)
			}
			logger.SetLevel(level)
		}
		opts = append(opts, injector.WithLogger(logger))
	}

	if s.Timing && timingRoot != nil {
		opts = append(opts, injector.WithTiming(timingRoot))
	}
	return opts, nil
}

func configError(key string, err error, format string, args ...any) error {
	return &injector.DependencyError{
		Kind:        injector.ErrConfiguration,
		Name:        key,
		Message:     fmt.Sprintf(format, args...),
		SourceError: err,
	}
}
