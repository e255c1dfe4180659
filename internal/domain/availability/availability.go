// Package availability scores reviewer spare capacity.
package availability

// Headroom returns (capacity-load)/capacity clamped to [0, 1]. A non-positive
// capacity yields 0, as does a reviewer at or over capacity.
func Headroom(load, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	h := float64(capacity-load) / float64(capacity)
	switch {
	case h < 0:
		return 0
	case h > 1:
		return 1
	}
	return h
}
