// Command realloc computes a resource transfer plan from a zone table CSV and
// prints it as JSON.
//
// Usage:
//
//	go run ./cmd/realloc -zones data/resources_output.csv
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/couchcryptid/wildfire-spread-etl/internal/observability"
	"github.com/couchcryptid/wildfire-spread-etl/internal/realloc"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	zonePath := flag.String("zones", "", "path to the zone table CSV")
	flag.Parse()

	if *zonePath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -zones")
	}

	f, err := os.Open(*zonePath)
	if err != nil {
		return fmt.Errorf("open zone table: %w", err)
	}
	defer f.Close()

	zones, err := realloc.ReadZoneTable(f)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := realloc.New(logger, observability.NewMetricsForTesting())
	plan := engine.Plan(zones)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}
