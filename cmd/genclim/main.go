// Command genclim generates synthetic daily climate series and runs the
// ECA&D catalogue over them. It writes the raw series as a JSON fixture
// for test suites and prints every index result, so expected values in
// assertions can be refreshed from real engine behavior.
//
// Usage:
//
//	go run ./cmd/genclim \
//	  -years 3 -seed 42 \
//	  -out data/mock/climate_2000_3y.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/thebaptiste/icclim/ecad"
	"github.com/thebaptiste/icclim/indices"
	"github.com/thebaptiste/icclim/observability"
	"github.com/thebaptiste/icclim/timeseries"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	startYear := flag.Int("start-year", 2000, "first calendar year of the generated series")
	years := flag.Int("years", 3, "number of calendar years to generate (minimum 2)")
	seed := flag.Int64("seed", 42, "random seed")
	freqName := flag.String("freq", "year", "output frequency (year, month, season names, ...)")
	only := flag.String("indices", "", "comma-separated index identifiers to run (default: all)")
	out := flag.String("out", "", "output path for the JSON series fixture (empty: skip)")
	flag.Parse()

	if *years < 2 {
		return fmt.Errorf("need at least two years so percentile indices have a reference period")
	}

	freq, err := indices.ParseFrequency(*freqName)
	if err != nil {
		return err
	}

	// Pin the clock so the history attributes of regenerated fixtures
	// do not churn.
	indices.SetClock(clockwork.NewFakeClockAt(
		time.Date(2026, time.January, 15, 9, 0, 0, 0, time.UTC),
	))
	defer indices.SetClock(nil)

	gen := generate(*startYear, *years, *seed)
	log.Printf("generated %d days x 4 variables starting %d", gen.days, *startYear)

	if *out != "" {
		if err := writeJSON(*out, gen.fixture()); err != nil {
			return fmt.Errorf("writing fixture: %w", err)
		}
		log.Printf("wrote series fixture: %s", *out)
	}

	in := ecad.Inputs{
		Tas:    gen.tas,
		Tasmin: gen.tasmin,
		Tasmax: gen.tasmax,
		Pr:     gen.pr,
		Reference: timeseries.Epoch{
			Start: time.Date(*startYear, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(*startYear+1, 12, 31, 0, 0, 0, 0, time.UTC),
		},
	}

	selected := selection(*only)
	eval := indices.NewEvaluator(
		indices.WithLogger(observability.NewLogger("warn", "text")),
		indices.WithMetrics(observability.NewMetricsForTesting()),
	)

	printResults(eval, in, freq, selected)
	return nil
}

// generated holds the four synthetic input series.
type generated struct {
	tas, tasmin, tasmax, pr *timeseries.Series
	start                   time.Time
	days                    int
}

// generate builds daily series with an annual cycle, normal day-to-day
// noise and intermittent exponential precipitation. The same seed always
// produces the same data.
func generate(startYear, years int, seed int64) generated {
	rng := rand.New(rand.NewSource(seed))

	start := time.Date(startYear, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(startYear+years, 1, 1, 0, 0, 0, 0, time.UTC)
	days := int(end.Sub(start).Hours() / 24)

	times := make([]time.Time, days)
	tas := make([]float64, days)
	tasmin := make([]float64, days)
	tasmax := make([]float64, days)
	pr := make([]float64, days)

	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		times[i] = day

		// Peak around mid July in the northern-hemisphere convention.
		annual := math.Sin(2 * math.Pi * float64(day.YearDay()-105) / 365.25)
		mean := 11 + 9*annual + rng.NormFloat64()*2
		spread := 4 + math.Abs(rng.NormFloat64())

		tas[i] = mean
		tasmax[i] = mean + spread
		tasmin[i] = mean - spread

		if rng.Float64() < 0.45 {
			pr[i] = rng.ExpFloat64() * 3
		}
	}

	return generated{
		tas:    newSeries(times, tas, "degC", "air_temperature"),
		tasmin: newSeries(times, tasmin, "degC", "air_temperature"),
		tasmax: newSeries(times, tasmax, "degC", "air_temperature"),
		pr:     newSeries(times, pr, "mm/day", "precipitation_flux"),
		start:  start,
		days:   days,
	}
}

func newSeries(times []time.Time, values []float64, unit, standardName string) *timeseries.Series {
	s, err := timeseries.New(times, values, 1)
	if err != nil {
		log.Fatalf("building series: %v", err)
	}
	s.Attrs.Units = unit
	s.Attrs.StandardName = standardName
	return s
}

// fixture is the JSON shape consumed by test suites.
type fixture struct {
	Start     string               `json:"start"`
	Days      int                  `json:"days"`
	Units     map[string]string    `json:"units"`
	Variables map[string][]float64 `json:"variables"`
}

func (g generated) fixture() fixture {
	return fixture{
		Start: g.start.Format("2006-01-02"),
		Days:  g.days,
		Units: map[string]string{
			"tas": "degC", "tasmin": "degC", "tasmax": "degC", "pr": "mm/day",
		},
		Variables: map[string][]float64{
			"tas":    g.tas.Values(),
			"tasmin": g.tasmin.Values(),
			"tasmax": g.tasmax.Values(),
			"pr":     g.pr.Values(),
		},
	}
}

func selection(only string) map[string]bool {
	if strings.TrimSpace(only) == "" {
		return nil
	}
	sel := map[string]bool{}
	for _, id := range strings.Split(only, ",") {
		sel[strings.ToUpper(strings.TrimSpace(id))] = true
	}
	return sel
}

func printResults(eval *indices.Evaluator, in ecad.Inputs, freq indices.Frequency, selected map[string]bool) {
	ctx := context.Background()
	groups := []ecad.Group{
		ecad.GroupTemperature, ecad.GroupHeat, ecad.GroupCold,
		ecad.GroupDrought, ecad.GroupRain,
	}

	fmt.Println("\n=== Index results for updating test assertions ===")
	for _, g := range groups {
		entries := ecad.ByGroup(g)
		if len(entries) == 0 {
			continue
		}
		fmt.Printf("\n[%s]\n", g)
		for _, ix := range entries {
			if selected != nil && !selected[strings.ToUpper(ix.ID)] {
				continue
			}
			got, err := ecad.Compute(ctx, eval, ix.ID, in, freq)
			if err != nil {
				log.Printf("%s failed: %v", ix.ID, err)
				continue
			}
			fmt.Printf("%-8s %-8s %s\n", ix.ID, got.Attrs.Units, formatValues(got))
		}
	}
}

func formatValues(s *timeseries.Series) string {
	var b strings.Builder
	for i := 0; i < s.Len(); i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%.4g", s.Time(i).Format("2006-01-02"), s.Value(i, 0))
	}
	return b.String()
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
