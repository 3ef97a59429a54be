package domain

import "context"

// FireDetection is one active-fire observation from the NASA FIRMS feed.
type FireDetection struct {
	Lat        float64 `json:"latitude"`
	Lon        float64 `json:"longitude"`
	Brightness float64 `json:"brightness"`
	AcqDate    string  `json:"acq_date"`
	AcqTime    string  `json:"acq_time"`
	Satellite  string  `json:"satellite"`
	Confidence string  `json:"confidence"`
	FRP        float64 `json:"frp"` // fire radiative power, MW
	DayNight   string  `json:"daynight"`
}

// FireSource provides recent active-fire detections for a country over a
// trailing day window.
type FireSource interface {
	ActiveFires(ctx context.Context, country string, days int) ([]FireDetection, error)
}
