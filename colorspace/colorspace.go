// Package colorspace converts interleaved 8-bit RGB frames into the two
// representations the flash analyzers consume: the HLS lightness plane and a
// per-pixel CIE 1976 UCS chromaticity map paired with the red fraction
// R/(R+G+B).
package colorspace

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// sRGB to XYZ tristimulus matrix (D65, Bradford), row major.
const (
	xr, xg, xb = 0.4124564, 0.3575761, 0.1804375
	yr, yg, yb = 0.2126729, 0.7151522, 0.0721750
	zr, zg, zb = 0.0193339, 0.1191920, 0.9503041
)

// Planes holds the per-frame products of one conversion pass. The buffers
// are reused across frames; Convert overwrites them in place.
type Planes struct {
	width, height int

	// L is the HLS lightness channel on the 0..255 scale.
	L []float64

	// U, V are the CIE 1976 u'v' chromaticity coordinates and R is the red
	// fraction R/(R+G+B). Pixels whose tristimulus or channel sum is zero
	// map to (0, 0) and 0 respectively.
	U, V, R []float64
}

// NewPlanes allocates conversion buffers for frames of the given size.
func NewPlanes(width, height int) (*Planes, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("plane dimensions must be positive")
	}

	n := width * height
	return &Planes{
		width:  width,
		height: height,
		L:      make([]float64, n),
		U:      make([]float64, n),
		V:      make([]float64, n),
		R:      make([]float64, n),
	}, nil
}

func (p *Planes) Width() int  { return p.width }
func (p *Planes) Height() int { return p.height }

// Convert fills the planes from an interleaved RGB frame. rgb must hold
// exactly width*height RGB triples. The conversion is a pure per-pixel pass
// and is run row-parallel.
func (p *Planes) Convert(rgb []byte) error {
	if len(rgb) != p.width*p.height*3 {
		return fmt.Errorf("rgb buffer is %d bytes, want %d", len(rgb),
			p.width*p.height*3)
	}

	workers := min(runtime.GOMAXPROCS(0), p.height)
	rowsPer := (p.height + workers - 1) / workers

	var group errgroup.Group
	for w := range workers {
		y0 := w * rowsPer
		y1 := min(y0+rowsPer, p.height)
		group.Go(func() error {
			p.convertRows(rgb, y0, y1)
			return nil
		})
	}

	return group.Wait()
}

func (p *Planes) convertRows(rgb []byte, y0, y1 int) {
	for y := y0; y < y1; y++ {
		base := y * p.width
		for x := 0; x < p.width; x++ {
			i := base + x
			r := float64(rgb[i*3])
			g := float64(rgb[i*3+1])
			b := float64(rgb[i*3+2])

			maxc := max(r, g, b)
			minc := min(r, g, b)
			p.L[i] = (maxc + minc) / 2

			xt := xr*r + xg*g + xb*b
			yt := yr*r + yg*g + yb*b
			zt := zr*r + zg*g + zb*b

			// A zero denominator only occurs for pure black; mapping it to
			// the origin keeps the arithmetic total without a sentinel.
			den := xt + 15*yt + 3*zt
			if den != 0 {
				p.U[i] = 4 * xt / den
				p.V[i] = 9 * yt / den
			} else {
				p.U[i], p.V[i] = 0, 0
			}

			sum := r + g + b
			if sum != 0 {
				p.R[i] = r / sum
			} else {
				p.R[i] = 0
			}
		}
	}
}

// RegionSamples aggregates the chromaticity map over an n x n grid of equal
// tiles (remainders truncated) and returns one (u', v', r) mean per tile in
// row-major order. dst is reused when it has capacity n*n.
func (p *Planes) RegionSamples(n int, dst [][3]float64) ([][3]float64, error) {
	if n <= 0 {
		return nil, errors.New("grid size must be positive")
	}

	tileH := p.height / n
	tileW := p.width / n
	if tileH == 0 || tileW == 0 {
		return nil, fmt.Errorf("frame %dx%d too small for a %dx%d grid",
			p.width, p.height, n, n)
	}

	if cap(dst) < n*n {
		dst = make([][3]float64, n*n)
	}
	dst = dst[:n*n]

	area := float64(tileH * tileW)
	for row := range n {
		for col := range n {
			var su, sv, sr float64
			for y := row * tileH; y < (row+1)*tileH; y++ {
				base := y * p.width
				for x := col * tileW; x < (col+1)*tileW; x++ {
					su += p.U[base+x]
					sv += p.V[base+x]
					sr += p.R[base+x]
				}
			}
			dst[row*n+col] = [3]float64{su / area, sv / area, sr / area}
		}
	}

	return dst, nil
}
