// Package detector drives the flash-hazard analysis over a decoded video
// stream. It couples the general-flash luminance analyzer and the red-flash
// state machines over a sliding one-second window and reports the time
// intervals in which the video exceeds the WCAG 2.1 flash thresholds.
package detector

import (
	"errors"
	"fmt"
	"math"

	"github.com/GreatValueCreamSoda/goflashdetect/colorspace"
	"github.com/GreatValueCreamSoda/goflashdetect/luminance"
	"github.com/GreatValueCreamSoda/goflashdetect/redflash"
	"github.com/GreatValueCreamSoda/goflashdetect/viewport"
)

var (
	// ErrInvalidArgument reports parameters rejected before any frame is
	// consumed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDegenerateFrame reports a frame whose dimensions differ from the
	// first frame or that cannot be converted. The invocation aborts
	// without emitting partial intervals.
	ErrDegenerateFrame = errors.New("degenerate frame")
)

const (
	// MinSpeed and MaxSpeed bound the playback-speed multiplier.
	MinSpeed = 0.2
	MaxSpeed = 5.0

	// DefaultHertz is the opposing-transition count per window at which a
	// window is classified as dangerous.
	DefaultHertz = 3

	// MergeGapSeconds is the largest gap between consecutive danger
	// intervals that still fuses them into one.
	MergeGapSeconds = 3.0
)

// ProgressCallback reports how many frames of the stream have been
// processed.
type ProgressCallback func(done, total int)

// Source delivers decoded RGB frames in presentation order.
type Source interface {
	// GetFrame writes the next frame into the provided buffer.
	GetFrame(*Frame) error
	GetNumFrames() int
	GetFrameRate() float64
	// GetDimensions returns the frame width and height in pixels.
	GetDimensions() (int, int)
}

// Frame holds one decoded frame as tightly packed interleaved 8-bit RGB.
type Frame struct {
	data          []byte
	width, height int
}

// NewFrame allocates a frame buffer for the given dimensions.
func NewFrame(width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: frame dimensions must be positive",
			ErrInvalidArgument)
	}
	return &Frame{
		data:   make([]byte, width*height*3),
		width:  width,
		height: height,
	}, nil
}

// Write copies packed RGB data into the frame. The data must match the
// frame's allocated size exactly; a mismatch means the source delivered a
// frame of unexpected geometry.
func (f *Frame) Write(data []byte) error {
	if len(data) != len(f.data) {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrDegenerateFrame,
			len(data), len(f.data))
	}
	copy(f.data, data)
	return nil
}

// Read returns the frame's pixel data. The returned slice is owned by the
// frame and must not be modified.
func (f *Frame) Read() []byte { return f.data }

// Dimensions returns the frame width and height in pixels.
func (f *Frame) Dimensions() (int, int) { return f.width, f.height }

// Options configures a Detector. The zero value is not valid; start from
// DefaultOptions.
type Options struct {
	// Speed is the playback-speed multiplier applied when sizing the
	// one-second analysis window. Must lie in [MinSpeed, MaxSpeed].
	Speed float64

	// Hertz is the flash-count threshold per window.
	Hertz int

	// SkipEnabled lets the detector jump a full window ahead whenever a
	// window contains no transitions at all, trading accuracy for speed.
	SkipEnabled bool

	// Physical viewing setup used to derive the luminance tile size.
	ScreenSize    float64
	ViewDistance  float64
	ViewportAngle float64
}

// DefaultOptions returns the standard configuration: real-time speed,
// 3-flashes-per-second threshold, skipping enabled, and the default
// physical viewing setup.
func DefaultOptions() Options {
	return Options{
		Speed:         1,
		Hertz:         DefaultHertz,
		SkipEnabled:   true,
		ScreenSize:    viewport.DefaultScreenSize,
		ViewDistance:  viewport.DefaultViewDistance,
		ViewportAngle: viewport.DefaultViewportAngle,
	}
}

// Report is the outcome of one analysis run.
type Report struct {
	// Intervals lists the merged [start, end] danger intervals in seconds.
	Intervals []Interval

	// RedFlashes lists every red-flash event observed by the region state
	// machines. It is a diagnostic stream and is not folded into
	// Intervals.
	RedFlashes []redflash.Event

	// FlashCounts records the peak opposing-transition count of each
	// evaluated window, in order.
	FlashCounts []int
}

// Detector runs the flash analysis over a single source. The zero value is
// not valid; use NewDetector.
type Detector struct {
	source Source
	opts   Options

	fps        float64
	total      int
	width      int
	height     int
	windowSize int

	planes  *colorspace.Planes
	lum     *luminance.Analyzer
	redBuf  *redflash.Buffer
	samples [][3]float64

	// window is the luminance frame deque; free recycles evicted planes.
	window [][]float64
	free   [][]float64

	intervals   []Interval
	flashCounts []int

	progress ProgressCallback
}

// NewDetector validates the options against the source's properties and
// prepares the analysis state. All parameter errors surface here, before
// any frame is consumed.
func NewDetector(source Source, opts Options) (*Detector, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: source must be non nil",
			ErrInvalidArgument)
	}

	if opts.Speed < MinSpeed || opts.Speed > MaxSpeed {
		return nil, fmt.Errorf("%w: speed %g outside [%g, %g]",
			ErrInvalidArgument, opts.Speed, MinSpeed, MaxSpeed)
	}

	if opts.Hertz < 1 {
		return nil, fmt.Errorf("%w: hertz threshold must be positive",
			ErrInvalidArgument)
	}

	fps := source.GetFrameRate()
	if fps <= 0 {
		return nil, fmt.Errorf("%w: frame rate %g must be positive",
			ErrInvalidArgument, fps)
	}

	width, height := source.GetDimensions()
	if width < redflash.GridSize || height < redflash.GridSize {
		return nil, fmt.Errorf("%w: frame %dx%d too small to analyze",
			ErrInvalidArgument, width, height)
	}

	windowSize := int(math.Round(fps * opts.Speed))
	if windowSize < 1 {
		return nil, fmt.Errorf("%w: window of %g fps at speed %g is empty",
			ErrInvalidArgument, fps, opts.Speed)
	}

	geom, err := viewport.CalcViewport(height, width, opts.ScreenSize,
		opts.ViewDistance, opts.ViewportAngle)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	planes, err := colorspace.NewPlanes(width, height)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	lum, err := luminance.NewAnalyzer(width, height, geom.SquareSidePx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	redBuf, err := redflash.NewBuffer(windowSize, redflash.GridSize, fps)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	return &Detector{
		source:     source,
		opts:       opts,
		fps:        fps,
		total:      source.GetNumFrames(),
		width:      width,
		height:     height,
		windowSize: windowSize,
		planes:     planes,
		lum:        lum,
		redBuf:     redBuf,
	}, nil
}

// WindowSize returns the analysis window capacity in frames.
func (d *Detector) WindowSize() int { return d.windowSize }

// SetProgressCallback registers a progress callback. It must be called
// before Run. Passing nil clears the callback.
func (d *Detector) SetProgressCallback(cb ProgressCallback) {
	d.progress = cb
}
