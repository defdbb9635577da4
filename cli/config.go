package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the tunable CLI settings in YAML form. Absent keys
// leave the flag defaults untouched, and flags set explicitly on the
// command line always win over the file.
type fileConfig struct {
	Input string   `yaml:"input"`
	Speed *float64 `yaml:"speed"`
	Hertz *int     `yaml:"hertz"`
	Skip  *bool    `yaml:"skip"`

	Viewport struct {
		ScreenSize   *float64 `yaml:"screen_size"`
		ViewDistance *float64 `yaml:"view_distance"`
		Angle        *float64 `yaml:"angle"`
	} `yaml:"viewport"`
}

func applyConfigFile(path string, settings *cliSettings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	flags := pflag.CommandLine

	if cfg.Input != "" && !flags.Changed("input") {
		settings.videoPath = cfg.Input
	}
	if cfg.Speed != nil && !flags.Changed("speed") {
		settings.speed = *cfg.Speed
	}
	if cfg.Hertz != nil && !flags.Changed("hertz") {
		settings.hertz = *cfg.Hertz
	}
	if cfg.Skip != nil && !flags.Changed("no-skip") {
		settings.noSkip = !*cfg.Skip
	}
	if cfg.Viewport.ScreenSize != nil && !flags.Changed("screen-size") {
		settings.screenSize = *cfg.Viewport.ScreenSize
	}
	if cfg.Viewport.ViewDistance != nil && !flags.Changed("view-distance") {
		settings.viewDistance = *cfg.Viewport.ViewDistance
	}
	if cfg.Viewport.Angle != nil && !flags.Changed("viewport-angle") {
		settings.viewportAngle = *cfg.Viewport.Angle
	}

	return nil
}
