package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/GreatValueCreamSoda/goflashdetect/detector"
	"github.com/GreatValueCreamSoda/goflashdetect/viewport"
)

type cliSettings struct {
	videoPath  string
	configPath string

	speed  float64
	hertz  int
	noSkip bool

	screenSize    float64
	viewDistance  float64
	viewportAngle float64

	showRedFlashes bool
}

var settings cliSettings

func (s *cliSettings) options() detector.Options {
	opts := detector.DefaultOptions()
	opts.Speed = s.speed
	opts.Hertz = s.hertz
	opts.SkipEnabled = !s.noSkip
	opts.ScreenSize = s.screenSize
	opts.ViewDistance = s.viewDistance
	opts.ViewportAngle = s.viewportAngle
	return opts
}

func init() {
	pflag.CommandLine.SortFlags = false

	// General Flags
	pflag.StringVarP(&settings.videoPath, "input", "i", "", "The video file to scan for flash hazards")
	pflag.StringVarP(&settings.configPath, "config", "c", "", "Optional YAML config file. Flags given on the command line win")
	pflag.Float64VarP(&settings.speed, "speed", "s", 1, "Playback speed multiplier used when sizing the one second analysis window [0.2, 5]")
	pflag.BoolVar(&settings.showRedFlashes, "red-flashes", false, "Print the raw red-flash event list after the interval report")
	printHelp := pflag.BoolP("help", "h", false, "Show this help message")

	// Detection settings
	var detectionSectionName string = "Detection Options"
	pflag.IntVar(&settings.hertz, "hertz", detector.DefaultHertz, "Opposing transition count per window that marks a window dangerous")
	addFlagToHelpGroup("hertz", detectionSectionName)

	pflag.BoolVar(&settings.noSkip, "no-skip", false, "Disable skipping a full window ahead when a window holds no transitions")
	addFlagToHelpGroup("no-skip", detectionSectionName)

	// Viewing setup
	var viewingSectionName string = "Viewing Setup Options"
	pflag.Float64Var(&settings.screenSize, "screen-size", viewport.DefaultScreenSize, "Physical screen diagonal in centimeters")
	addFlagToHelpGroup("screen-size", viewingSectionName)

	pflag.Float64Var(&settings.viewDistance, "view-distance", viewport.DefaultViewDistance, "Viewing distance in centimeters")
	addFlagToHelpGroup("view-distance", viewingSectionName)

	pflag.Float64Var(&settings.viewportAngle, "viewport-angle", viewport.DefaultViewportAngle, "Foveal viewport half-angle in degrees")
	addFlagToHelpGroup("viewport-angle", viewingSectionName)

	pflag.Parse()

	if *printHelp {
		cliUsage()
		os.Exit(0)
	}

	if settings.configPath != "" {
		if err := applyConfigFile(settings.configPath, &settings); err != nil {
			fmt.Fprintln(os.Stderr, "config:", err)
			os.Exit(1)
		}
	}

	if settings.videoPath == "" {
		fmt.Fprintln(os.Stderr, "an input video is required")
		cliUsage()
		os.Exit(1)
	}
}

const flagGroupAnnotation = "group"

func addFlagToHelpGroup(flagName string, helpGroupName string) {
	lookupFlag := pflag.Lookup(flagName)
	if lookupFlag == nil {
		panic("unknown flag: " + flagName)
	}

	if lookupFlag.Annotations == nil {
		lookupFlag.Annotations = map[string][]string{}
	}
	lookupFlag.Annotations[flagGroupAnnotation] = []string{helpGroupName}
}

func cliUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", filepath.Base(os.Args[0]))

	// Group flags by annotation, default to "General Options"
	helpGroupLists := make(map[string][]*pflag.Flag)
	var helpGroupOrder []string
	var longestFlagName, longestHelpMessage int

	pflag.CommandLine.VisitAll(func(f *pflag.Flag) {
		flagGroup := "General Options"
		if annotations := f.Annotations[flagGroupAnnotation]; len(annotations) > 0 {
			flagGroup = annotations[0]
		}

		if _, exists := helpGroupLists[flagGroup]; !exists {
			helpGroupOrder = append(helpGroupOrder, flagGroup)
		}
		helpGroupLists[flagGroup] = append(helpGroupLists[flagGroup], f)

		longestFlagName = max(longestFlagName, len(f.Name)+1)
		longestHelpMessage = max(longestHelpMessage, len(f.Usage)+1)
	})

	for _, helpGroupName := range helpGroupOrder {
		fmt.Fprint(os.Stderr, colorText(hiYellow, helpGroupName+":\n"))
		for _, f := range helpGroupLists[helpGroupName] {
			printFormattedFlag(f, longestFlagName, longestHelpMessage)
		}
		fmt.Fprint(os.Stderr, "\n")
	}
}

func printFormattedFlag(f *pflag.Flag, maxFlagName, maxHelpText int) {
	flagPadding := strings.Repeat(" ", maxFlagName-len(f.Name))
	flagName := colorText(cyan, fmt.Sprintf("--%s%s", f.Name, flagPadding))

	helpPadding := strings.Repeat(" ", maxHelpText-len(f.Usage))
	defaultTxt := colorText(darkPurple,
		fmt.Sprintf("%sDefault: %s", helpPadding, getDefaultString(f)))

	fmt.Fprintf(os.Stderr, "\t%s %s   %s\n", flagName,
		colorText(green, f.Usage), defaultTxt)
}

func getDefaultString(f *pflag.Flag) string {
	if f.DefValue == "" {
		return "\"\""
	}
	return f.DefValue
}

// ANSI color codes

type color string

const (
	cyan       color = "\033[96m"
	darkPurple color = "\033[38;5;55m"
	hiYellow   color = "\033[93m"
	green      color = "\033[92m"
)

const reset = "\033[0m"

func colorText(c color, text string) string { return string(c) + text + reset }
