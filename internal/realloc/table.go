package realloc

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/wildfire-spread-etl/internal/domain"
)

// zone table columns required in the CSV header.
var requiredColumns = []string{
	"county_name", "latitude", "longitude",
	"firefighter_capacity", "water_tank_capacity", "fire_zone",
}

// ReadZoneTable parses a zone table CSV, preserving row order. Row order
// matters: it fixes both the nearest-zone tie-break and the transfer event
// order within a pass.
func ReadZoneTable(r io.Reader) ([]domain.Zone, error) {
	reader := csv.NewReader(r)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read zone table: %w", err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("zone table has no header row")
	}

	colIdx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		colIdx[strings.TrimSpace(h)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("zone table is missing column %q", col)
		}
	}

	zones := make([]domain.Zone, 0, len(rows)-1)
	for n, row := range rows[1:] {
		zone, err := parseZoneRow(row, colIdx)
		if err != nil {
			return nil, fmt.Errorf("zone table row %d: %w", n+2, err)
		}
		zones = append(zones, zone)
	}
	return zones, nil
}

func parseZoneRow(row []string, colIdx map[string]int) (domain.Zone, error) {
	field := func(name string) string {
		return strings.TrimSpace(row[colIdx[name]])
	}

	lat, err := strconv.ParseFloat(field("latitude"), 64)
	if err != nil {
		return domain.Zone{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(field("longitude"), 64)
	if err != nil {
		return domain.Zone{}, fmt.Errorf("longitude: %w", err)
	}
	firefighters, err := parseNonNegativeInt(field("firefighter_capacity"))
	if err != nil {
		return domain.Zone{}, fmt.Errorf("firefighter_capacity: %w", err)
	}
	water, err := parseNonNegativeInt(field("water_tank_capacity"))
	if err != nil {
		return domain.Zone{}, fmt.Errorf("water_tank_capacity: %w", err)
	}
	category, err := domain.ParseRiskCategory(field("fire_zone"))
	if err != nil {
		return domain.Zone{}, err
	}

	return domain.Zone{
		County:       field("county_name"),
		Lat:          lat,
		Lon:          lon,
		Firefighters: firefighters,
		WaterLiters:  water,
		Category:     category,
	}, nil
}

func parseNonNegativeInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("capacity must be non-negative, got %d", n)
	}
	return n, nil
}

// FileZoneSource loads the zone table from a CSV file on each call, matching
// the read-once-per-invocation contract.
type FileZoneSource struct {
	Path string
}

// LoadZones reads and parses the zone table file.
func (s *FileZoneSource) LoadZones(_ context.Context) ([]domain.Zone, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open zone table: %w", err)
	}
	defer f.Close()
	return ReadZoneTable(f)
}

// CheckReadiness reports whether the zone table is present and readable.
func (s *FileZoneSource) CheckReadiness(_ context.Context) error {
	_, err := os.Stat(s.Path)
	return err
}
