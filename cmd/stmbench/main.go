// Package main provides stmbench, a benchmark driver for the wbetl
// engine: N goroutines hammering a shared pool of accounts with random
// transfers, reporting commit/abort counts and a final balance
// snapshot. Extend counts are only available through -metrics-addr.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	natomic "github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"
	"github.com/tailscale/hujson"

	stm "github.com/tiancaiamao/wbetl"
)

// config holds every tunable the benchmark reads, either from flags or
// from an optional JSONC file (grounded on calvinalkan-agent-task's
// hujson-backed Config).
type config struct {
	Threads    int     `json:"threads"`
	Accounts   int     `json:"accounts"`
	Rounds     int     `json:"rounds"`
	Initial    uint64  `json:"initial_balance"`
	ReadOnlyPr float64 `json:"read_only_fraction"`
}

func defaultConfig() config {
	return config{
		Threads:    8,
		Accounts:   64,
		Rounds:     20000,
		Initial:    1000,
		ReadOnlyPr: 0.1,
	}
}

// result is the JSON snapshot written to -out at the end of a run.
type result struct {
	Threads       int    `json:"threads"`
	Accounts      int    `json:"accounts"`
	RoundsPerGor  int    `json:"rounds_per_goroutine"`
	TotalBalance  uint64 `json:"total_balance"`
	ExpectedTotal uint64 `json:"expected_total"`
	ElapsedMs     int64  `json:"elapsed_ms"`
	Commits       uint64 `json:"commits"`
	Aborts        uint64 `json:"aborts"`
	Reads         uint64 `json:"read_only_txns"`
}

func main() {
	cfg := defaultConfig()

	configPath := flag.String("config", "", "Path to a JSONC config file overriding the defaults below")
	flag.IntVar(&cfg.Threads, "threads", cfg.Threads, "Number of concurrent goroutines, each with its own thread descriptor")
	flag.IntVar(&cfg.Accounts, "accounts", cfg.Accounts, "Number of shared TVar accounts")
	flag.IntVar(&cfg.Rounds, "rounds", cfg.Rounds, "Transfer attempts per goroutine")
	flag.Uint64Var(&cfg.Initial, "initial", cfg.Initial, "Initial balance per account")
	flag.Float64Var(&cfg.ReadOnlyPr, "read-only-fraction", cfg.ReadOnlyPr, "Fraction of rounds that audit the total instead of transferring")
	outPath := flag.String("out", "", "Write the final result snapshot as JSON to this path (atomic rename)")
	metricsAddr := flag.String("metrics-addr", "", "If set, expose Prometheus metrics on this address (e.g. :9090) for the duration of the run")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, "Usage: stmbench [flags]\n\nRuns a concurrent bank-transfer workload against the wbetl engine.\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *configPath != "" {
		if err := loadConfig(*configPath, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "stmbench: %v\n", err)
			os.Exit(1)
		}
	}

	if *metricsAddr != "" {
		stopMetrics, err := serveMetrics(*metricsAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "stmbench: %v\n", err)
			os.Exit(1)
		}
		defer stopMetrics()
	}

	res := runBenchmark(cfg)

	fmt.Fprintf(os.Stderr, "threads=%d accounts=%d rounds/goroutine=%d elapsed=%dms commits=%d aborts=%d total=%d (expected %d)\n",
		res.Threads, res.Accounts, res.RoundsPerGor, res.ElapsedMs, res.Commits, res.Aborts, res.TotalBalance, res.ExpectedTotal)

	if res.TotalBalance != res.ExpectedTotal {
		fmt.Fprintln(os.Stderr, "stmbench: WARNING total balance diverged from expectation")
	}

	if *outPath != "" {
		if err := writeResult(*outPath, res); err != nil {
			fmt.Fprintf(os.Stderr, "stmbench: %v\n", err)
			os.Exit(1)
		}
	}
}

// loadConfig reads a JSONC (JSON-with-comments) file and overlays it on
// cfg, following the same Standardize-then-Unmarshal shape
// calvinalkan-agent-task's config loader uses.
func loadConfig(path string, cfg *config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("invalid JSONC config: %w", err)
	}

	if err := json.Unmarshal(standardized, cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

// writeResult publishes the snapshot via atomic.WriteFile (temp file +
// rename), so a reader polling -out never observes a half-written
// snapshot (grounded on calvinalkan-agent-task's internal/fs.Real.Write).
func writeResult(path string, res result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	data = append(data, '\n')

	if err := natomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("publishing result: %w", err)
	}
	return nil
}

func runBenchmark(cfg config) result {
	accounts := make([]*stm.TVar[uint64], cfg.Accounts)
	for i := range accounts {
		accounts[i] = stm.NewTVar(cfg.Initial)
	}

	var commits, aborts, reads uint64

	_ = stm.RegisterCallbacks(nil, nil, nil, nil,
		func(*stm.Txn, interface{}) { atomic.AddUint64(&commits, 1) },
		func(*stm.Txn, interface{}) { atomic.AddUint64(&aborts, 1) },
		nil,
	)

	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(cfg.Threads)
	for g := 0; g < cfg.Threads; g++ {
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			t := stm.InitThread()
			defer stm.ExitThread(t)

			for i := 0; i < cfg.Rounds; i++ {
				if rnd.Float64() < cfg.ReadOnlyPr {
					atomic.AddUint64(&reads, 1)
					stm.AtomicallyWith(t, stm.Attr{ReadOnly: true}, func(t *stm.Txn) {
						for _, acc := range accounts {
							_ = acc.Load(t)
						}
					})
					continue
				}

				from := rnd.Intn(cfg.Accounts)
				to := rnd.Intn(cfg.Accounts)
				if from == to {
					continue
				}
				stm.Atomically(t, func(t *stm.Txn) {
					fv := accounts[from].Load(t)
					if fv == 0 {
						return
					}
					tv := accounts[to].Load(t)
					accounts[from].Store(t, fv-1)
					accounts[to].Store(t, tv+1)
				})
			}
		}(int64(g) + 1)
	}
	wg.Wait()

	elapsed := time.Since(start)

	total := uint64(0)
	runTx(func(t *stm.Txn) {
		stm.AtomicallyWith(t, stm.Attr{ReadOnly: true}, func(t *stm.Txn) {
			for _, acc := range accounts {
				total += acc.Load(t)
			}
		})
	})

	return result{
		Threads:       cfg.Threads,
		Accounts:      cfg.Accounts,
		RoundsPerGor:  cfg.Rounds,
		TotalBalance:  total,
		ExpectedTotal: cfg.Initial * uint64(cfg.Accounts),
		ElapsedMs:     elapsed.Milliseconds(),
		Commits:       atomic.LoadUint64(&commits),
		Aborts:        atomic.LoadUint64(&aborts),
		Reads:         atomic.LoadUint64(&reads),
	}
}

func runTx(f func(t *stm.Txn)) {
	t := stm.InitThread()
	defer stm.ExitThread(t)
	f(t)
}
