// Package redflash tracks saturated-red flashing per frame region. WCAG 2.1
// defines a red flash as a pair of opposing transitions involving a
// saturated red: one endpoint has R/(R+G+B) >= 0.8 and the states differ by
// more than 0.2 in the CIE 1976 UCS chromaticity diagram.
//
// Each region runs a nondeterministic five-state machine over the sliding
// window:
//
//	A: start state.
//	B: start state whose opening frame contains a saturated red.
//	C: one opposing transition seen, a saturated red involved.
//	D: one opposing transition seen, no saturated red yet.
//	E: red flash confirmed.
//
// A region may occupy several states at once, rooted at different window
// positions; states sharing (name, origin) are merged by unioning their
// coordinate histories.
package redflash

const (
	// MaxChromaticityDiff is the u'v' distance between two states required
	// for an opposing transition.
	MaxChromaticityDiff = 0.2

	// MaxRedPercentage is the red fraction at or above which a state counts
	// as a saturated red.
	MaxRedPercentage = 0.8
)

// Coord is a CIE 1976 u'v' chromaticity coordinate.
type Coord struct {
	U, V float64
}

type stateName uint8

const (
	stateA stateName = iota
	stateB
	stateC
	stateD
	stateE
)

// stateKey identifies a state: two states with the same name rooted at the
// same window index are the same state.
type stateKey struct {
	name   stateName
	origin int
}

// Region holds the active state set for one tile of the frame grid.
type Region struct {
	states map[stateKey][]Coord
}

// aboveThreshold reports whether any coordinate that brought the machine to
// this state is at least MaxChromaticityDiff away from c.
func aboveThreshold(coords []Coord, c Coord) bool {
	for _, prev := range coords {
		du := prev.U - c.U
		dv := prev.V - c.V
		if du*du+dv*dv >= MaxChromaticityDiff*MaxChromaticityDiff {
			return true
		}
	}
	return false
}

// mergeState inserts a successor state, unioning coordinate histories when
// the (name, origin) identity already exists.
func mergeState(set map[stateKey][]Coord, key stateKey, c Coord) {
	if coords, ok := set[key]; ok {
		set[key] = append(coords, c)
		return
	}
	set[key] = []Coord{c}
}

// Step advances the region's state machine with the sample for the frame at
// window index idx. All eligible transitions fire on a snapshot of the
// pre-step set; the successors and any states that did not transition form
// the new set, and a fresh start state rooted at idx is seeded last.
func (r *Region) Step(c Coord, redPercentage float64, idx int) {
	next := make(map[stateKey][]Coord, len(r.states)+1)
	red := redPercentage >= MaxRedPercentage

	for key, coords := range r.states {
		// The machine may always stay, so the new coordinate joins the
		// history before transitions are evaluated.
		coords = append(coords, c)
		opposing := aboveThreshold(coords, c)

		fired := false
		switch key.name {
		case stateA:
			if opposing && red {
				mergeState(next, stateKey{stateC, key.origin}, c)
				fired = true
			}
			if opposing {
				mergeState(next, stateKey{stateD, key.origin}, c)
				fired = true
			}
		case stateB:
			if opposing {
				mergeState(next, stateKey{stateC, key.origin}, c)
				fired = true
			}
		case stateC:
			if opposing {
				mergeState(next, stateKey{stateE, key.origin}, c)
				fired = true
			}
		case stateD:
			if opposing && red {
				mergeState(next, stateKey{stateE, key.origin}, c)
				fired = true
			}
		}

		if !fired {
			next[key] = coords
		}
	}

	start := stateKey{stateA, idx}
	if red {
		start.name = stateB
	}
	mergeState(next, start, c)

	r.states = next
}

// FlashIdx returns the window index at which a confirmed red flash begins,
// or -1 when the region holds no flash state. With several flash states
// active the earliest origin is reported.
func (r *Region) FlashIdx() int {
	flash := -1
	for key := range r.states {
		if key.name != stateE {
			continue
		}
		if flash == -1 || key.origin < flash {
			flash = key.origin
		}
	}
	return flash
}

// evict drops every state rooted at the expired window index.
func (r *Region) evict(origin int) {
	for key := range r.states {
		if key.origin == origin {
			delete(r.states, key)
		}
	}
}
