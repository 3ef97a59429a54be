package domain

import (
	"fmt"
	"regexp"
)

// FeatureStats holds the clip bounds and moments used to normalize one feature.
type FeatureStats struct {
	ClipMin float64
	ClipMax float64
	Mean    float64
	Std     float64
}

// StatsTable maps a feature base key to its normalization statistics.
// The table is treated as immutable once constructed; the pipeline only reads it.
type StatsTable map[string]FeatureStats

// KeyFormatError reports a feature key that does not start with an alphabetic
// character and therefore cannot be resolved to a base key.
type KeyFormatError struct {
	Key string
}

func (e *KeyFormatError) Error() string {
	return fmt.Sprintf("feature key %q does not match the expected pattern", e.Key)
}

// baseKeyRe matches the leading alphabetic run of a feature key,
// e.g. "tmmx_3" -> "tmmx", "NDVI" -> "NDVI".
var baseKeyRe = regexp.MustCompile(`^[a-zA-Z]+`)

// BaseKey extracts the base key from a feature key. Time-sequenced exports
// name variables "variable_1", "variable_2", ... and every step must share the
// base variable's statistics. Returns a *KeyFormatError when the key has no
// leading alphabetic character.
func BaseKey(key string) (string, error) {
	base := baseKeyRe.FindString(key)
	if base == "" {
		return "", &KeyFormatError{Key: key}
	}
	return base, nil
}

// Lookup resolves a feature key to its statistics via BaseKey.
// Returns an error when the key is malformed or the base key has no entry.
func (t StatsTable) Lookup(key string) (FeatureStats, error) {
	base, err := BaseKey(key)
	if err != nil {
		return FeatureStats{}, err
	}
	stats, ok := t[base]
	if !ok {
		return FeatureStats{}, fmt.Errorf("no data statistics available for key %q", key)
	}
	return stats, nil
}

// DefaultStats returns the published statistics table for the wildfire spread
// dataset, computed on the uncropped training split. Clip bounds are the 0.1
// and 99.9 percentiles unless a physical bound applies.
func DefaultStats() StatsTable {
	return StatsTable{
		"elevation": {ClipMin: 0.0, ClipMax: 3536.0, Mean: 896.5714, Std: 842.6101},
		// Palmer Drought Severity Index.
		"pdsi": {ClipMin: -6.0559, ClipMax: 6.7432, Mean: -0.7729, Std: 2.4407},
		"NDVI": {ClipMin: -3826.0, ClipMax: 9282.0, Mean: 5350.6865, Std: 2185.2192},
		// Precipitation in mm; negative values make no sense, so min is 0.
		"pr": {ClipMin: 0.0, ClipMax: 19.2422, Mean: 0.3234289, Std: 1.5336641},
		// Specific humidity ranges from 0 to 100%.
		"sph": {ClipMin: 0.0, ClipMax: 1.0, Mean: 0.0065263123, Std: 0.003735537},
		// Wind direction, degrees clockwise from north.
		"th": {ClipMin: 0.0, ClipMax: 360.0, Mean: 146.6468, Std: 3435.0725},
		// Min/max temperature in Kelvin, floored at -20C.
		"tmmn": {ClipMin: 253.15, ClipMax: 299.6313, Mean: 281.85196, Std: 18.4972},
		"tmmx": {ClipMin: 253.15, ClipMax: 317.3869, Mean: 297.71643, Std: 19.4581},
		"vs":   {ClipMin: 0.0, ClipMax: 9.7368, Mean: 3.6278, Std: 1.3092},
		"erc":  {ClipMin: 0.0, ClipMax: 109.9254, Mean: 53.4690, Std: 25.0980},
		"population": {ClipMin: 0.0, ClipMax: 2935.7548828125, Mean: 30.4603, Std: 214.20015},
		// Fire masks are never normalized; identity stats keep lookups total.
		"PrevFireMask": {ClipMin: -1.0, ClipMax: 1.0, Mean: 0.0, Std: 1.0},
		"FireMask":     {ClipMin: -1.0, ClipMax: 1.0, Mean: 0.0, Std: 1.0},
	}
}

// DefaultInputFeatures is the declared channel order of the model input.
// Reordering breaks compatibility with externally trained models.
func DefaultInputFeatures() []string {
	return []string{
		"elevation", "th", "vs", "tmmn", "tmmx", "sph",
		"pr", "pdsi", "NDVI", "population", "erc", "PrevFireMask",
	}
}

// DefaultOutputFeatures is the declared label feature list.
func DefaultOutputFeatures() []string {
	return []string{"FireMask"}
}
