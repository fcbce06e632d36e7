package emath

// Some functions that only operate on basic types, that are useful

// ClampInt pins v into [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo { return lo }
	if v > hi { return hi }
	return v
}

// ClampByte pins an int into the range of a uint8 channel value.
func ClampByte(v int) uint8 {
	return uint8(ClampInt(v, 0, 255))
}

// Map linearly maps `v` from [inMin, inMax] onto [outMin, outMax]. It
// does not clamp. The input range must not be empty.
func Map(v, inMin, inMax, outMin, outMax float64) float64 {
	return (v - inMin) / (inMax - inMin) * (outMax - outMin) + outMin
}

// Wrap returns v modulo n, always in [0, n).
func Wrap(v, n int) int {
	v %= n
	if v < 0 { v += n }
	return v
}
