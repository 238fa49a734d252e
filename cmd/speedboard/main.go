package main

import (
	"context"
	"embed"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"speedboard/internal/clock"
	"speedboard/internal/config"
	"speedboard/internal/models"
	"speedboard/internal/netinfo"
	"speedboard/internal/report"
	"speedboard/internal/sequencer"
	"speedboard/internal/store"
	"speedboard/internal/web"
)

//go:embed static/*
var staticFiles embed.FS

var (
	configPath string
	portFlag   int
	fastFlag   bool
	csvPath    string
	jsonPath   string
)

var rootCmd = &cobra.Command{
	Use:   "speedboard",
	Short: "Simulated network speed test dashboard",
	Long: `speedboard serves a local dashboard that simulates a network speed
test: ping, jitter, download/upload speed and packet loss are produced
by seeded randomness and fixed timers, not real probing.

Examples:
  # Serve the dashboard on the configured port
  speedboard serve

  # Run a single test in the terminal, skipping the simulated delays
  speedboard run --fast

  # Export the result of a one-shot run
  speedboard run --fast --csv result.csv`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard web UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one measurement in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to speedboard.yaml")
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "listen port (overrides config)")
	runCmd.Flags().BoolVar(&fastFlag, "fast", false, "skip the simulated delays")
	runCmd.Flags().StringVar(&csvPath, "csv", "", "write the result as CSV to this path")
	runCmd.Flags().StringVar(&jsonPath, "json", "", "write the result as JSON to this path")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if portFlag > 0 {
		cfg.Port = portFlag
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newRand(cfg config.Config) models.Rand {
	if cfg.Seed != 0 {
		return clock.NewRand(cfg.Seed)
	}
	return clock.DefaultRand()
}

func serve() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.New()
	if err != nil {
		return fmt.Errorf("failed to initialize record store: %w", err)
	}
	defer st.Close()

	clk := clock.NewAdjustable(cfg.DelayScale)
	rnd := newRand(cfg)
	seq := sequencer.New(st, clk, rnd, cfg.ProbeURL)
	probe := netinfo.New(cfg.IPLookupURL, clk, rnd)
	server := web.New(st, seq, probe, cfg.Port, staticFiles)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hot-reload the delay scale when the config file changes.
	watchPath := configPath
	if watchPath == "" {
		watchPath = config.DefaultConfigFilename
	}
	if _, err := os.Stat(watchPath); err == nil {
		go func() {
			if err := config.Watch(ctx, watchPath, func(next config.Config) {
				clk.SetFactor(next.DelayScale)
			}); err != nil {
				log.Printf("Config watcher stopped: %v", err)
			}
		}()
	}

	// Log history growth as completed tests land.
	go func() {
		for range st.Subscribe() {
			if n, err := st.Len(); err == nil {
				log.Printf("History updated (%d records)", n)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start web server: %v", err)
		}
	}()

	log.Printf("Dashboard available at http://localhost:%d", cfg.Port)

	<-sigChan
	log.Println("Shutting down...")
	seq.Stop()
	seq.Wait()
	return nil
}

func runOnce() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.New()
	if err != nil {
		return fmt.Errorf("failed to initialize record store: %w", err)
	}
	defer st.Close()

	factor := cfg.DelayScale
	if fastFlag {
		factor = 0
	}
	clk := clock.Scaled{Factor: factor}
	seq := sequencer.New(st, clk, newRand(cfg), cfg.ProbeURL)

	fmt.Println("Running speed test...")
	if err := seq.Start(); err != nil {
		return err
	}
	seq.Wait()

	records, err := st.All()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("test produced no result")
	}

	r := records[0]
	fmt.Printf("Download:    %.1f Mbps\n", r.Download)
	fmt.Printf("Upload:      %.1f Mbps\n", r.Upload)
	fmt.Printf("Ping:        %d ms\n", r.Ping)
	fmt.Printf("Jitter:      %d ms\n", r.Jitter)
	fmt.Printf("Packet loss: %.2f %%\n", r.PacketLoss)
	fmt.Printf("Quality:     %s\n", r.Quality)

	if csvPath != "" {
		if err := writeExport(csvPath, records, report.WriteCSV); err != nil {
			return err
		}
		fmt.Printf("CSV written to %s\n", csvPath)
	}
	if jsonPath != "" {
		if err := writeExport(jsonPath, records, report.WriteJSON); err != nil {
			return err
		}
		fmt.Printf("JSON written to %s\n", jsonPath)
	}
	return nil
}

func writeExport(path string, records []models.MeasurementRecord, write func(io.Writer, []models.MeasurementRecord) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export create failed: %w", err)
	}
	defer f.Close()
	return write(f, records)
}
