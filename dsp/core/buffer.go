package core

// EnsureLen returns buf resized to n, reusing capacity when possible.
func EnsureLen[T any](buf []T, n int) []T {
	if n < 0 {
		n = 0
	}

	if cap(buf) < n {
		return make([]T, n)
	}

	return buf[:n]
}

// Zero sets every element of buf to its zero value.
func Zero[T any](buf []T) {
	clear(buf)
}

// Deinterleave splits interleaved src into per-channel planes.
// Each plane is resized to len(src)/len(dst); the resized planes are returned.
func Deinterleave(dst [][]float64, src []float32) [][]float64 {
	channels := len(dst)
	if channels == 0 {
		return dst
	}

	frames := len(src) / channels
	for ch := range dst {
		dst[ch] = EnsureLen(dst[ch], frames)
	}

	for i := range frames {
		base := i * channels
		for ch := range channels {
			dst[ch][i] = float64(src[base+ch])
		}
	}

	return dst
}

// Interleave writes per-channel planes into dst and returns it.
// Planes shorter than the first are padded with silence.
func Interleave(dst []float32, src [][]float64) []float32 {
	channels := len(src)
	if channels == 0 {
		return dst[:0]
	}

	frames := len(src[0])
	dst = EnsureLen(dst, frames*channels)

	for i := range frames {
		base := i * channels
		for ch := range channels {
			if i < len(src[ch]) {
				dst[base+ch] = float32(src[ch][i])
			} else {
				dst[base+ch] = 0
			}
		}
	}

	return dst
}
