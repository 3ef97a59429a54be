package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RiskCategory is a zone's fire-risk classification. The four categories form
// an ascending priority order: Safe Zone < At Risk Day 3 < Critical Day 2 <
// Critical Day 1.
type RiskCategory string

const (
	SafeZone     RiskCategory = "Safe Zone"
	AtRiskDay3   RiskCategory = "At Risk Day 3"
	CriticalDay2 RiskCategory = "Critical Day 2"
	CriticalDay1 RiskCategory = "Critical Day 1"
)

// Priority returns the category's rank, 1 (lowest) through 4 (highest).
// Unknown categories rank 0.
func (c RiskCategory) Priority() int {
	switch c {
	case SafeZone:
		return 1
	case AtRiskDay3:
		return 2
	case CriticalDay2:
		return 3
	case CriticalDay1:
		return 4
	default:
		return 0
	}
}

// ParseRiskCategory validates a fire_zone label from the zone table.
func ParseRiskCategory(s string) (RiskCategory, error) {
	c := RiskCategory(s)
	if c.Priority() == 0 {
		return "", fmt.Errorf("unknown fire_zone category %q", s)
	}
	return c, nil
}

// Zone is one county-level record from the resource table. Zones are read
// once per reallocation run and never mutated; transfers are recorded as
// separate TransferEvents.
type Zone struct {
	County       string       `json:"county_name"`
	Lat          float64      `json:"latitude"`
	Lon          float64      `json:"longitude"`
	Firefighters int          `json:"firefighter_capacity"`
	WaterLiters  int          `json:"water_tank_capacity"`
	Category     RiskCategory `json:"fire_zone"`
}

// TransferEvent is one resource-reallocation recommendation: move the stated
// firefighters and liters of water from a lower-priority zone to its nearest
// higher-priority zone.
type TransferEvent struct {
	From         string       `json:"from"`
	To           string       `json:"to"`
	Firefighters int          `json:"firefighters"`
	Water        int          `json:"water"`
	FromZone     RiskCategory `json:"from_zone"`
	ToZone       RiskCategory `json:"to_zone"`
}

// TransferPlan is the ordered result of one reallocation run.
type TransferPlan struct {
	PlanID      string          `json:"plan_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Events      []TransferEvent `json:"events"`
}

// NewTransferPlan stamps a plan with a fresh ID and the current clock time.
func NewTransferPlan(events []TransferEvent) TransferPlan {
	return TransferPlan{
		PlanID:      uuid.NewString(),
		GeneratedAt: clock.Now().UTC(),
		Events:      events,
	}
}
