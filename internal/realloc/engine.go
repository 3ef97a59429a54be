// Package realloc implements the greedy resource-reallocation engine: for
// each zone in a lower-priority category it finds the nearest zone in a
// designated higher-priority category and recommends moving a fixed fraction
// of the source's capacity there.
package realloc

import (
	"log/slog"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/couchcryptid/wildfire-spread-etl/internal/domain"
	"github.com/couchcryptid/wildfire-spread-etl/internal/observability"
)

// Default transfer fractions: Safe Zone sources give up 40% of capacity to the
// nearest Critical Day 1 zone, At Risk Day 3 sources give up 20% to the
// nearest Critical Day 2 zone.
const (
	DefaultSafeZoneFraction = 0.40
	DefaultAtRiskFraction   = 0.20
)

// Engine computes transfer plans over an immutable zone table.
type Engine struct {
	logger  *slog.Logger
	metrics *observability.Metrics

	safeZoneFraction float64
	atRiskFraction   float64
}

// New creates an engine with the default transfer fractions.
func New(logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		logger:           logger,
		metrics:          metrics,
		safeZoneFraction: DefaultSafeZoneFraction,
		atRiskFraction:   DefaultAtRiskFraction,
	}
}

// Plan runs both reallocation passes over the zone table and returns the
// stamped transfer plan. The table is read-only: each source's nearest target
// is computed against the original zone set, never against targets adjusted
// by earlier events. Event order is pass 1 then pass 2, each in table row
// order, so identical inputs yield identical plans.
func (e *Engine) Plan(zones []domain.Zone) domain.TransferPlan {
	start := time.Now()

	events := e.pass(zones, domain.SafeZone, domain.CriticalDay1, e.safeZoneFraction)
	events = append(events, e.pass(zones, domain.AtRiskDay3, domain.CriticalDay2, e.atRiskFraction)...)

	plan := domain.NewTransferPlan(events)

	e.metrics.ReallocationRuns.Inc()
	e.metrics.TransferEvents.Add(float64(len(events)))
	e.metrics.ReallocationDuration.Observe(time.Since(start).Seconds())
	e.logger.Info("reallocation plan computed",
		"plan_id", plan.PlanID,
		"zones", len(zones),
		"events", len(events),
	)
	return plan
}

// pass emits one transfer event per source-category zone that has a reachable
// target-category zone. An empty target set is a normal outcome: the pass
// simply emits nothing.
func (e *Engine) pass(zones []domain.Zone, from, to domain.RiskCategory, fraction float64) []domain.TransferEvent {
	targets := filterByCategory(zones, to)

	var events []domain.TransferEvent
	for _, src := range zones {
		if src.Category != from {
			continue
		}
		target, ok := NearestZone(src, targets)
		if !ok {
			continue
		}
		events = append(events, domain.TransferEvent{
			From: src.County,
			To:   target.County,
			// Amounts truncate toward zero.
			Firefighters: int(float64(src.Firefighters) * fraction),
			Water:        int(float64(src.WaterLiters) * fraction),
			FromZone:     from,
			ToZone:       to,
		})
	}
	return events
}

// NearestZone returns the target minimizing plane Euclidean distance on
// (lat, lon) from src. Ties resolve to the earliest target in slice order via
// floats.MinIdx, which reports the first occurrence of the minimum. The false
// return means the target set is empty, which callers treat as "skip this
// source", not as an error.
func NearestZone(src domain.Zone, targets []domain.Zone) (domain.Zone, bool) {
	if len(targets) == 0 {
		return domain.Zone{}, false
	}

	dists := make([]float64, len(targets))
	for i, t := range targets {
		dists[i] = math.Hypot(src.Lat-t.Lat, src.Lon-t.Lon)
	}
	return targets[floats.MinIdx(dists)], true
}

func filterByCategory(zones []domain.Zone, c domain.RiskCategory) []domain.Zone {
	var out []domain.Zone
	for _, z := range zones {
		if z.Category == c {
			out = append(out, z)
		}
	}
	return out
}
