// Package luminance counts opposing luminance transitions over a one-second
// window of frames, the general-flash half of the WCAG 2.1 thresholds. A
// pair of frames forms an opposing transition for a tile when their mean
// lightness differs by more than half the full scale and the darker endpoint
// sits below 80% of it.
package luminance

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

const (
	// deltaThreshold is the minimum tile-mean lightness difference for an
	// opposing transition.
	deltaThreshold = 0.5 * 255

	// darkThreshold is the level the darker endpoint of a transition must
	// stay below.
	darkThreshold = 0.8 * 255
)

// Analyzer scans windows of lightness planes for a fixed frame geometry.
// Scratch buffers are reused between windows, so an Analyzer must not be
// shared across goroutines.
type Analyzer struct {
	width, height int
	sections      int
	tileW, tileH  int
	means         []float64
	counts        []int
}

// NewAnalyzer creates an analyzer for width x height frames tiled with the
// given viewport square side in pixels. The grid dimension is the number of
// whole squares along the longer frame axis, and both axes reuse that
// dimension.
func NewAnalyzer(width, height, squareSidePx int) (*Analyzer, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("frame dimensions must be positive")
	}
	if squareSidePx <= 0 {
		return nil, errors.New("viewport square side must be positive")
	}

	sections := max(width, height) / squareSidePx
	if sections < 1 {
		sections = 1
	}

	tileW := width / sections
	tileH := height / sections
	if tileW == 0 || tileH == 0 {
		return nil, fmt.Errorf("frame %dx%d too small for %d sections",
			width, height, sections)
	}

	return &Analyzer{
		width:    width,
		height:   height,
		sections: sections,
		tileW:    tileW,
		tileH:    tileH,
		counts:   make([]int, sections*sections),
	}, nil
}

// Sections returns the tile grid dimension.
func (a *Analyzer) Sections() int { return a.sections }

// MaxFlashes scans a window of lightness planes and returns the peak
// opposing-transition count over all tiles. Each plane must hold
// width*height samples on the 0..255 scale.
//
// Frame pairs (i, j), i < j, are examined in order. When a tile forms an
// opposing transition for a pair, its count increments and the scan skips
// ahead: i advances to j, j restarts at i+1, and the tile scan restarts from
// the first tile.
func (a *Analyzer) MaxFlashes(window [][]float64) (int, error) {
	frames := len(window)
	for _, plane := range window {
		if len(plane) != a.width*a.height {
			return 0, fmt.Errorf("plane is %d samples, want %d", len(plane),
				a.width*a.height)
		}
	}

	a.tileMeans(window)

	for i := range a.counts {
		a.counts[i] = 0
	}

	for i := 0; i < frames-1; {
		advanced := false
		for j := i + 1; j < frames; j++ {
			if tile, ok := a.findOpposing(i, j); ok {
				a.counts[tile]++
				i = j
				advanced = true
				break
			}
		}
		if !advanced {
			i++
		}
	}

	peak := 0
	for _, c := range a.counts {
		peak = max(peak, c)
	}
	return peak, nil
}

// findOpposing scans the tile grid row-major for the first opposing
// transition between frames i and j of the window.
func (a *Analyzer) findOpposing(i, j int) (int, bool) {
	per := a.sections * a.sections
	for tile := range per {
		li := a.means[i*per+tile]
		lj := a.means[j*per+tile]

		delta := li - lj
		if delta < 0 {
			delta = -delta
		}

		if delta > deltaThreshold && min(li, lj) < darkThreshold {
			return tile, true
		}
	}
	return 0, false
}

// tileMeans computes the mean lightness of every tile of every frame in the
// window. Frames are independent, so the pass runs frame-parallel.
func (a *Analyzer) tileMeans(window [][]float64) {
	per := a.sections * a.sections
	if cap(a.means) < len(window)*per {
		a.means = make([]float64, len(window)*per)
	}
	a.means = a.means[:len(window)*per]

	workers := min(runtime.GOMAXPROCS(0), len(window))

	var group errgroup.Group
	for w := range workers {
		group.Go(func() error {
			for f := w; f < len(window); f += workers {
				a.frameTileMeans(window[f], a.means[f*per:(f+1)*per])
			}
			return nil
		})
	}
	_ = group.Wait()
}

func (a *Analyzer) frameTileMeans(plane, dst []float64) {
	area := float64(a.tileH * a.tileW)
	for row := range a.sections {
		for col := range a.sections {
			var sum float64
			for y := row * a.tileH; y < (row+1)*a.tileH; y++ {
				base := y * a.width
				for x := col * a.tileW; x < (col+1)*a.tileW; x++ {
					sum += plane[base+x]
				}
			}
			dst[row*a.sections+col] = sum / area
		}
	}
}
