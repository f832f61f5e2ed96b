package stream

// Smooth returns the next output of a first-order exponential low-pass
// filter. factor weights the previously emitted value: at 1.0 the output
// never moves, near the 0.75 floor it follows the input more closely.
// prevOK reports whether prev holds a previously emitted value; on the
// very first sample of an axis there is none and raw passes through
// unchanged.
//
// The fed-back value is the one stored in the axis window, not the
// previous raw input. The filter is therefore recursive on its own
// output, and turning it on or off mid-stream never rewrites history
// already stored.
func Smooth(prev float64, prevOK bool, raw, factor float64) float64 {
	if !prevOK {
		return raw
	}
	return factor*prev + (1-factor)*raw
}
