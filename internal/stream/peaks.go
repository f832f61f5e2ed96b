package stream

import "math"

// CountPeaks counts local maxima in readings after quantization.
//
// Every reading is mapped to floor(reading*quantization) before the scan,
// so only direction changes big enough to cross an integer boundary at
// that scale register. The quantization factor is the sole noise knob of
// the detector: at 1 the window is compared at roughly unit precision, at
// larger values ever smaller wiggles count.
//
// The scan walks the window once with a direction flag that starts
// ascending and a previous value of 0. A peak is recorded each time a
// quantized descent is seen while ascending. Equal neighbours keep the
// current direction, which means a flat-topped peak counts once and a dip
// too small to cross a quantization boundary does not split a peak in
// two. Empty, single-element and rising windows yield 0; a window that
// opens with a descent counts that first drop, the zero start value
// acting as an implicit foothill.
func CountPeaks(readings []float64, quantization float64) int {
	peaks := 0
	ascending := true
	last := 0
	for _, r := range readings {
		q := int(math.Floor(r * quantization))
		if ascending && last > q {
			peaks++
			ascending = false
		} else if last < q {
			ascending = true
		}
		last = q
	}
	return peaks
}
