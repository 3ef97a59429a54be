package domain

// ClipAndRescale clamps each value to [ClipMin, ClipMax] and rescales the
// result linearly into [0, 1]. When ClipMax == ClipMin the result is 0 rather
// than NaN or Inf, mirroring divide-no-nan semantics.
func ClipAndRescale(values []float64, stats FeatureStats) []float64 {
	out := make([]float64, len(values))
	span := stats.ClipMax - stats.ClipMin
	for i, v := range values {
		out[i] = divideNoNaN(clamp(v, stats.ClipMin, stats.ClipMax)-stats.ClipMin, span)
	}
	return out
}

// ClipAndNormalize clamps each value to [ClipMin, ClipMax], subtracts the
// feature mean, and divides by the feature std. When Std == 0 the result is 0.
func ClipAndNormalize(values []float64, stats FeatureStats) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = divideNoNaN(clamp(v, stats.ClipMin, stats.ClipMax)-stats.Mean, stats.Std)
	}
	return out
}

// Denormalize inverts ClipAndNormalize, recovering the clamped value.
func Denormalize(values []float64, stats FeatureStats) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v*stats.Std + stats.Mean
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func divideNoNaN(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
