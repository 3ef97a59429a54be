package domain

import "context"

// SpreadPredictor is the opaque next-day fire spread model. Input is an
// N×sample_size×sample_size×num_input_features batch with channels in
// DefaultInputFeatures order; output is an N×sample_size×sample_size×1
// probability tensor with values in [0, 1].
type SpreadPredictor interface {
	PredictSpread(ctx context.Context, input *Tensor4) (*Tensor4, error)
}
