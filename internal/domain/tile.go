package domain

import "fmt"

// TileRecord is one serialized geospatial tile: a flat row-major square grid
// per feature name, each of side data_size.
type TileRecord map[string][]float64

// Tensor is a dense H×W×C array in row-major HWC layout.
type Tensor struct {
	H, W, C int
	Data    []float64
}

// NewTensor allocates a zeroed H×W×C tensor.
func NewTensor(h, w, c int) *Tensor {
	return &Tensor{H: h, W: w, C: c, Data: make([]float64, h*w*c)}
}

// At returns the value at row y, column x, channel c.
func (t *Tensor) At(y, x, c int) float64 {
	return t.Data[(y*t.W+x)*t.C+c]
}

// Set stores v at row y, column x, channel c.
func (t *Tensor) Set(y, x, c int, v float64) {
	t.Data[(y*t.W+x)*t.C+c] = v
}

// Sample is one cropped, normalized tile ready for model consumption.
// Input is H×W×C with channels in declared feature order; Output and Weight
// are H×W×1. Weight holds 1 where the output cell is known (value >= 0) and
// 0 where it is the no-data sentinel; downstream loss computation must apply
// it, the pipeline only derives it.
type Sample struct {
	Input  *Tensor
	Output *Tensor
	Weight *Tensor
}

// Tensor4 is a dense N×H×W×C batch tensor in row-major NHWC layout.
type Tensor4 struct {
	N, H, W, C int
	Data       []float64
}

// NewTensor4 allocates a zeroed N×H×W×C tensor.
func NewTensor4(n, h, w, c int) *Tensor4 {
	return &Tensor4{N: n, H: h, W: w, C: c, Data: make([]float64, n*h*w*c)}
}

// At returns the value at sample n, row y, column x, channel c.
func (t *Tensor4) At(n, y, x, c int) float64 {
	return t.Data[((n*t.H+y)*t.W+x)*t.C+c]
}

// SetSample copies one HWC tensor into slot n of the batch.
func (t *Tensor4) SetSample(n int, s *Tensor) error {
	if s.H != t.H || s.W != t.W || s.C != t.C {
		return fmt.Errorf("sample shape %dx%dx%d does not match batch shape %dx%dx%d",
			s.H, s.W, s.C, t.H, t.W, t.C)
	}
	copy(t.Data[n*t.H*t.W*t.C:], s.Data)
	return nil
}

// Nested converts the batch into a nested [n][h][w][c] array, the JSON wire
// form used by the prediction endpoints.
func (t *Tensor4) Nested() [][][][]float64 {
	out := make([][][][]float64, t.N)
	for n := range out {
		rows := make([][][]float64, t.H)
		for y := range rows {
			cols := make([][]float64, t.W)
			for x := range cols {
				base := ((n*t.H+y)*t.W + x) * t.C
				cols[x] = t.Data[base : base+t.C : base+t.C]
			}
			rows[y] = cols
		}
		out[n] = rows
	}
	return out
}

// Tensor4FromNested builds a batch tensor from a nested [n][h][w][c] array,
// validating that every row, column, and channel vector is uniformly sized.
func Tensor4FromNested(nested [][][][]float64) (*Tensor4, error) {
	if len(nested) == 0 || len(nested[0]) == 0 || len(nested[0][0]) == 0 || len(nested[0][0][0]) == 0 {
		return nil, fmt.Errorf("empty tensor payload")
	}
	n, h, w, c := len(nested), len(nested[0]), len(nested[0][0]), len(nested[0][0][0])
	t := NewTensor4(n, h, w, c)
	i := 0
	for ni, rows := range nested {
		if len(rows) != h {
			return nil, fmt.Errorf("ragged tensor payload: sample %d has %d rows, want %d", ni, len(rows), h)
		}
		for yi, cols := range rows {
			if len(cols) != w {
				return nil, fmt.Errorf("ragged tensor payload: sample %d row %d has %d columns, want %d", ni, yi, len(cols), w)
			}
			for xi, chans := range cols {
				if len(chans) != c {
					return nil, fmt.Errorf("ragged tensor payload: sample %d cell (%d,%d) has %d channels, want %d", ni, yi, xi, len(chans), c)
				}
				copy(t.Data[i:], chans)
				i += c
			}
		}
	}
	return t, nil
}

// Batch groups Size samples into stacked NHWC tensors. The final batch of an
// epoch may be partial.
type Batch struct {
	Size   int
	Input  *Tensor4
	Output *Tensor4
	Weight *Tensor4
}
