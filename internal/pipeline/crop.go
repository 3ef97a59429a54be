package pipeline

import "github.com/couchcryptid/wildfire-spread-etl/internal/domain"

// cropTensor copies the axis-aligned square window of the given side starting
// at (y0, x0), keeping all channels.
func cropTensor(t *domain.Tensor, y0, x0, side int) *domain.Tensor {
	out := domain.NewTensor(side, side, t.C)
	for y := 0; y < side; y++ {
		srcBase := ((y0+y)*t.W + x0) * t.C
		dstBase := y * side * t.C
		copy(out.Data[dstBase:dstBase+side*t.C], t.Data[srcBase:srcBase+side*t.C])
	}
	return out
}

// centerOffset returns the start offset of a centered sampleSize window in a
// dataSize grid, rounding toward the origin so the crop is deterministic.
func centerOffset(dataSize, sampleSize int) int {
	return (dataSize - sampleSize) / 2
}
