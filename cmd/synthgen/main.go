// Command synthgen emits a synthetic observation series as JSON, one object
// per line, using the same generator the service falls back to. Useful for
// seeding test fixtures and for exercising downstream consumers without a
// live weather feed.
//
// Usage:
//
//	go run ./cmd/synthgen -count 144 -interval 10m -seed 42 > observations.jsonl
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/terrain-risk-service/internal/ingest"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	count := flag.Int("count", 144, "number of observations to generate")
	interval := flag.Duration("interval", 10*time.Minute, "simulated time between observations")
	seed := flag.Int64("seed", 1, "generator seed")
	start := flag.String("start", "", "start time, RFC3339 (default: now)")
	flag.Parse()

	startAt := time.Now().UTC()
	if *start != "" {
		var err error
		startAt, err = time.Parse(time.RFC3339, *start)
		if err != nil {
			return fmt.Errorf("invalid -start: %w", err)
		}
	}

	clock := clockwork.NewFakeClockAt(startAt)
	gen := ingest.NewSyntheticGenerator(*seed, clock)

	enc := json.NewEncoder(os.Stdout)
	for i := 0; i < *count; i++ {
		if err := enc.Encode(gen.Generate()); err != nil {
			return fmt.Errorf("encode observation: %w", err)
		}
		clock.Advance(*interval)
	}
	return nil
}
