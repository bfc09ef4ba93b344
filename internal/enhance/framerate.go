package enhance

import "math"

// NormalizeFrameRate snaps near-standard frame rates to their broadcast
// fractional values. Rates within half a frame of 24 or 30 prefer the
// fractional variant (23.976, 29.97) over the integer. Anything outside the
// known windows is returned rounded to three decimals.
//
// Only automatic normalization goes through here; an explicitly chosen
// output rate bypasses this function entirely.
func NormalizeFrameRate(fps float64) float64 {
	switch {
	case fps >= 23.5 && fps < 24.5:
		return 23.976
	case fps >= 24.5 && fps < 25.5:
		return 25.0
	case fps >= 29.5 && fps < 30.5:
		return 29.97
	case fps >= 49.5 && fps < 50.5:
		return 50.0
	case fps >= 59.5 && fps < 60.5:
		return 59.94
	}
	return math.Round(fps*1000) / 1000
}
