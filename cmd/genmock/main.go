// Command genmock writes a deterministic charging-infrastructure CSV for local
// runs and fixtures. The generated file is decoded and forecast with the real
// domain package so the printed stats match what the pipelines will produce.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/ev_infrastructure.csv \
//	  -states Delhi,Kerala,Goa,Maharashtra \
//	  -from 2018 -to 2024 -seed 42
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/ev-adoption-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/ev-adoption-etl/internal/domain"
)

type options struct {
	out     string
	states  []string
	from    int
	to      int
	seed    uint64
	percent bool
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the generated CSV")
	states := flag.String("states", "Delhi,Kerala,Goa,Maharashtra,Karnataka,Tamil Nadu", "comma-separated state names")
	from := flag.Int("from", 2018, "first year")
	to := flag.Int("to", 2024, "last year")
	seed := flag.Uint64("seed", 42, "random seed")
	percent := flag.Bool("percent", false, "write shares on a 0-100 scale (dashboard input)")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *to-*from < 1 {
		return fmt.Errorf("need at least two years, got %d-%d", *from, *to)
	}

	opts := options{
		out:     *out,
		states:  splitStates(*states),
		from:    *from,
		to:      *to,
		seed:    *seed,
		percent: *percent,
	}

	data, err := generate(opts)
	if err != nil {
		return err
	}

	// Round-trip through the real decoder before writing anything.
	table, err := csvfile.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("generated CSV does not decode: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(opts.out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(opts.out, data, 0o600); err != nil {
		return err
	}
	log.Printf("wrote %d rows for %d states: %s", table.Len(), len(table.States()), opts.out)

	if !opts.percent {
		return printForecastStats(table)
	}
	printDashboardStats(table)
	return nil
}

func splitStates(s string) []string {
	var states []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			states = append(states, part)
		}
	}
	return states
}

// generate produces steadily growing infrastructure with a little noise so
// every state has a usable trend.
func generate(opts options) ([]byte, error) {
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(domain.RequiredColumns); err != nil {
		return nil, err
	}

	scale := 1.0
	if opts.percent {
		scale = 100
	}

	for _, state := range opts.states {
		stations := 20 + rng.IntN(300)
		step := 5 + rng.IntN(60)
		fast := 0.05 + rng.Float64()*0.15
		urban := 0.2 + rng.Float64()*0.3

		for year := opts.from; year <= opts.to; year++ {
			row := []string{
				state,
				strconv.Itoa(year),
				strconv.Itoa(stations),
				strconv.FormatFloat(round4(min(fast, 1)*scale), 'f', -1, 64),
				strconv.FormatFloat(round4(min(urban, 1)*scale), 'f', -1, 64),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
			stations += step + rng.IntN(step/2+1)
			fast += 0.01 + rng.Float64()*0.03
			urban += 0.02 + rng.Float64()*0.04
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func round4(v float64) float64 {
	return float64(int(v*10000+0.5)) / 10000
}

func printForecastStats(table domain.Table) error {
	history := domain.SynthesizeHistory(table, domain.DefaultPolicyTable())
	forecast, err := domain.BuildForecast(context.Background(), history, 1)
	if err != nil {
		return fmt.Errorf("forecast generated data: %w", err)
	}
	merged := domain.RecomputeFeatures(history.Concat(forecast))

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Historical rows: %d, forecast rows: %d\n", history.Len(), forecast.Len())

	categories := map[string]int{}
	for _, r := range merged.Records() {
		categories[r.TransitionCategory]++
		if r.DataType == domain.Forecast {
			fmt.Printf("  %-12s %d  stations=%-5d ev=%-7d ice=%-7d score=%.4f  %s\n",
				r.State, r.Year, r.ChargingStations, r.EVSales, r.ICESales, r.ReadinessScore, r.TransitionCategory)
		}
	}
	for _, label := range domain.ForecastScheme.Labels {
		fmt.Printf("%s: %d\n", label, categories[label])
	}
	return nil
}

func printDashboardStats(table domain.Table) {
	enriched := domain.EnrichDashboard(table)

	categories := map[string]int{}
	for _, r := range enriched.Records() {
		categories[r.TransitionCategory]++
	}
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Rows: %d\n", enriched.Len())
	for _, label := range domain.DashboardScheme.Labels {
		fmt.Printf("%s: %d\n", label, categories[label])
	}
	fmt.Printf("Uncategorized: %d\n", categories[""])
}
