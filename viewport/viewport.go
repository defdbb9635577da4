// Package viewport computes the on-screen size of a viewer's foveal
// viewport. The flash analyzers tile each frame using the pixel side length
// of the largest square inscribed in the circular viewport, so that a
// "region" approximates the area of the retina a flash actually stimulates.
package viewport

import (
	"errors"
	"math"
)

// Default physical setup: a 15 inch diagonal display viewed from 26 inches,
// with a 10 degree viewport half-angle. Lengths are in centimeters.
const (
	DefaultScreenSize    = 15 * 2.54
	DefaultViewDistance  = 26 * 2.54
	DefaultViewportAngle = 10.0
)

// Geometry describes the viewport relative to a concrete screen.
type Geometry struct {
	// CircleFraction is the fraction of the screen area covered by the
	// circular viewport.
	CircleFraction float64

	// SquareFraction is the fraction of the screen area covered by the
	// largest square inscribed in the circular viewport.
	SquareFraction float64

	// SquareSidePx is the side length of that square in screen pixels,
	// rounded up.
	SquareSidePx int
}

// CalcViewport computes the viewport geometry for a screen of height x width
// pixels with the given physical diagonal (cm), viewing distance (cm) and
// viewport half-angle (degrees).
//
// The viewport is the base of a cone from the viewer's eye: its radius is
// viewDistance * tan(angle). The screen's physical dimensions are recovered
// from the pixel aspect ratio (reduced by gcd) and the diagonal length, the
// pixel density follows, and the inscribed square side sqrt(2) * radius is
// converted to pixels with a ceiling.
func CalcViewport(height, width int, screenSize, viewDistance,
	viewportAngle float64) (Geometry, error) {

	var geom Geometry

	if height <= 0 || width <= 0 {
		return geom, errors.New("screen resolution must be positive")
	}

	if screenSize <= 0 || viewDistance <= 0 {
		return geom, errors.New("screen size and view distance must be " +
			"positive")
	}

	if viewportAngle <= 0 || viewportAngle >= 90 {
		return geom, errors.New("viewport angle must be in (0, 90) degrees")
	}

	radius := viewDistance * math.Tan(viewportAngle*math.Pi/180)
	circleArea := math.Pi * radius * radius

	div := gcd(height, width)
	aspectH := float64(height / div)
	aspectW := float64(width / div)
	hypotenuse := math.Hypot(aspectH, aspectW)

	screenHeight := aspectH / hypotenuse * screenSize
	screenWidth := aspectW / hypotenuse * screenSize
	screenArea := screenHeight * screenWidth

	ppcm := float64(height) / screenHeight
	squareSide := math.Sqrt2 * radius

	geom.CircleFraction = circleArea / screenArea
	geom.SquareFraction = squareSide * squareSide / screenArea
	geom.SquareSidePx = int(math.Ceil(squareSide * ppcm))

	return geom, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
