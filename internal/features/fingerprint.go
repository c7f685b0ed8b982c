package features

// Fingerprint XORs together the sums of consecutive chunks of width elements.
// The final chunk may be shorter. A width of zero or less hashes the whole
// vector as one chunk.
//
// This is a change detector, not a digest: any two chunks that sum to the
// same value are indistinguishable, so moving values around inside one chunk
// keeps the fingerprint.
func Fingerprint(v Vector, width int) uint64 {
	if width <= 0 {
		width = len(v)
	}
	var h uint64
	for start := 0; start < len(v); start += width {
		end := min(start+width, len(v))
		var sum uint64
		for _, x := range v[start:end] {
			sum += uint64(x)
		}
		h ^= sum
	}
	return h
}
