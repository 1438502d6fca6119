// ABOUTME: Linear interpolation resampler
// ABOUTME: Converts floating sample buffers between sample rates
package decode

// Resample converts src from srcRate to dstRate using linear
// interpolation. Not band-limited: aliasing above the voice band is
// possible, which is acceptable for narrow-band speech but lossy for
// arbitrary high-fidelity audio.
func Resample(src []float64, srcRate, dstRate int) []float64 {
	if srcRate == dstRate || len(src) == 0 {
		return src
	}

	ratio := float64(srcRate) / float64(dstRate)
	outLen := int(float64(len(src)) * float64(dstRate) / float64(srcRate))
	if outLen == 0 {
		outLen = 1
	}

	out := make([]float64, outLen)
	last := len(src) - 1

	for i := range out {
		srcIndex := float64(i) * ratio
		lo := int(srcIndex)
		if lo > last {
			lo = last
		}
		hi := lo + 1
		if hi > last {
			hi = last
		}
		frac := srcIndex - float64(lo)
		out[i] = src[lo]*(1-frac) + src[hi]*frac
	}

	return out
}
