/*
main.go - Application entry point

PURPOSE:

	Command-line front end of the labor report engine. Three subcommands
	cover the whole lifecycle: seed input data into the database, run a
	batch and write the report documents, or serve the HTTP API.

COMMANDS:

	run      Execute one batch run and write per-job CSV reports
	serve    Start the HTTP API with graceful shutdown
	seed     Load CSV input files into the SQLite database

INPUT SELECTION (run):

	With --shifts the run reads directly from CSV files (--salaries and
	--classes required, --receipts optional). Without it the run reads
	from the SQLite database named by config.

CONFIGURATION:

	Environment variables, see pipeline.Config:
	  LABOR_TAX_RATE    Uniform tax fraction (default 0.077)
	  LABOR_DB_PATH     SQLite database path (default labor.db)
	  LABOR_ADDR        HTTP listen address (default :8080)
	  LABOR_LOG_FORMAT  "pretty" or "json"

GRACEFUL SHUTDOWN (serve):

	On SIGINT/SIGTERM:
	1. Stop accepting new connections
	2. Wait for active requests to complete (30s timeout)
	3. Close database connection
	4. Exit

EXAMPLES:

	# Seed the database from CSV files
	laborgen seed --shifts shifts.csv --salaries salaries.csv --classes classes.csv

	# Run a batch from the database, reports into ./out
	laborgen run --out ./out

	# Run straight from CSV files
	laborgen run --shifts shifts.csv --salaries salaries.csv --classes classes.csv --out ./out

	# Serve the API
	LABOR_ADDR=:3000 laborgen serve

SEE ALSO:
  - api/server.go: Router configuration
  - pipeline/runner.go: The batch run
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/warp/labor-engine/api"
	"github.com/warp/labor-engine/pipeline"
	"github.com/warp/labor-engine/report"
	"github.com/warp/labor-engine/source"
	"github.com/warp/labor-engine/store/sqlite"
	"github.com/warp/labor-engine/temporal"
)

// csvFlags holds the CSV input paths shared by run and seed.
type csvFlags struct {
	shifts   string
	salaries string
	classes  string
	receipts string
}

func (f csvFlags) files() source.Files {
	return source.Files{
		ShiftsFile:   f.shifts,
		Salaries:     f.salaries,
		Classes:      f.classes,
		ReceiptsFile: f.receipts,
	}
}

func (f *csvFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.shifts, "shifts", "", "shift rows CSV")
	cmd.Flags().StringVar(&f.salaries, "salaries", "", "salary schedule CSV")
	cmd.Flags().StringVar(&f.classes, "classes", "", "class percentage schedule CSV")
	cmd.Flags().StringVar(&f.receipts, "receipts", "", "receipt rows CSV (optional)")
}

func main() {
	root := &cobra.Command{
		Use:           "laborgen",
		Short:         "Labor cost report engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(runCommand(), serveCommand(), seedCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// =============================================================================
// RUN
// =============================================================================

func runCommand() *cobra.Command {
	var csv csvFlags
	var outDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one batch run and write CSV reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := pipeline.LoadConfig()
			if err != nil {
				return err
			}
			log := pipeline.NewLogger(cfg)

			src, cleanup, err := buildSources(cfg, csv)
			if err != nil {
				return err
			}
			defer cleanup()

			run, err := pipeline.NewRunner(cfg, log, src).Run(cmd.Context())
			if err != nil {
				return err
			}
			if err := writeReports(outDir, run); err != nil {
				return err
			}

			for _, line := range run.Diagnostics {
				fmt.Println(line)
			}
			return nil
		},
	}
	csv.register(cmd)
	cmd.Flags().StringVar(&outDir, "out", ".", "directory for the CSV report documents")
	return cmd
}

// buildSources picks CSV files when --shifts is given, the SQLite
// database otherwise.
func buildSources(cfg *pipeline.Config, csv csvFlags) (pipeline.Sources, func(), error) {
	if csv.shifts != "" {
		if csv.salaries == "" || csv.classes == "" {
			return pipeline.Sources{}, nil, fmt.Errorf("--salaries and --classes are required with --shifts")
		}
		files := csv.files()
		src := pipeline.Sources{Rates: files, Shifts: files}
		if csv.receipts != "" {
			src.Receipts = files
		}
		return src, func() {}, nil
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return pipeline.Sources{}, nil, err
	}
	return pipeline.Sources{
		Rates:    store,
		Shifts:   store,
		Receipts: store,
	}, func() { store.Close() }, nil
}

func writeReports(dir string, run *pipeline.RunReport) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, res := range run.Jobs {
		if res.Err != nil {
			continue // abandoned jobs produce no document
		}
		path := filepath.Join(dir, reportFilename(res.Job.Address))
		if err := writeDocument(path, func(f *os.File) error {
			return report.WriteJobCSV(f, res.Job)
		}); err != nil {
			return err
		}
	}
	if run.Materials != nil {
		path := filepath.Join(dir, "materials.csv")
		if err := writeDocument(path, func(f *os.File) error {
			return report.WriteMaterialsCSV(f, run.Materials)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeDocument(path string, render func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// reportFilename flattens a job address into a safe file name.
func reportFilename(address string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, address)
	return name + ".csv"
}

// =============================================================================
// SERVE
// =============================================================================

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := pipeline.LoadConfig()
			if err != nil {
				return err
			}
			log := pipeline.NewLogger(cfg)

			store, err := sqlite.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runner := pipeline.NewRunner(cfg, log, pipeline.Sources{
				Rates:    store,
				Shifts:   store,
				Receipts: store,
			})
			router := api.NewRouter(api.NewHandler(runner))

			server := &http.Server{
				Addr:         cfg.Addr,
				Handler:      router,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 60 * time.Second, // POST /api/runs recomputes everything
				IdleTimeout:  60 * time.Second,
			}

			errs := make(chan error, 1)
			go func() {
				log.Info("server starting", "addr", cfg.Addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errs <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errs:
				return err
			case <-quit:
			}

			log.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		},
	}
}

// =============================================================================
// SEED
// =============================================================================

func seedCommand() *cobra.Command {
	var csv csvFlags

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load CSV input files into the SQLite database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := pipeline.LoadConfig()
			if err != nil {
				return err
			}

			store, err := sqlite.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			files := csv.files()

			if csv.shifts != "" {
				rows, err := files.Shifts(ctx)
				if err != nil {
					return err
				}
				for _, row := range rows {
					if err := store.InsertShift(ctx, row); err != nil {
						return err
					}
				}
				fmt.Printf("seeded %d shift rows\n", len(rows))
			}

			if csv.salaries != "" {
				n, err := seedSchedule(ctx, files.SalarySchedule, store.InsertSalaryRate)
				if err != nil {
					return err
				}
				fmt.Printf("seeded %d salary rates\n", n)
			}
			if csv.classes != "" {
				n, err := seedSchedule(ctx, files.ClassSchedule, store.InsertClassRate)
				if err != nil {
					return err
				}
				fmt.Printf("seeded %d class rates\n", n)
			}

			if csv.receipts != "" {
				rows, err := files.Receipts(ctx)
				if err != nil {
					return err
				}
				for _, row := range rows {
					if err := store.InsertReceipt(ctx, row); err != nil {
						return err
					}
				}
				fmt.Printf("seeded %d receipt rows\n", len(rows))
			}
			return nil
		},
	}
	csv.register(cmd)
	return cmd
}

// seedSchedule parses one schedule file into a table and copies its
// entries into the database. Parsing first means a malformed file seeds
// nothing at all.
func seedSchedule(
	ctx context.Context,
	load func(context.Context) (*temporal.Table[string, decimal.Decimal], error),
	insert func(context.Context, string, time.Time, decimal.Decimal) error,
) (int, error) {
	tbl, err := load(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	var insertErr error
	tbl.Walk(func(key string, start time.Time, value decimal.Decimal) {
		if insertErr != nil {
			return
		}
		if insertErr = insert(ctx, key, start, value); insertErr == nil {
			n++
		}
	})
	return n, insertErr
}
