package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fenilsonani/reclaim/internal/config"
	"github.com/fenilsonani/reclaim/internal/daemon"
	"github.com/fenilsonani/reclaim/internal/dupes"
	"github.com/fenilsonani/reclaim/internal/logging"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"

	configPath  string
	testConfig  bool
	runNow      string
	showVersion bool
)

func init() {
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&testConfig, "test-config", false, "Test configuration and exit")
	flag.StringVar(&runNow, "run", "", "Run the named schedule once and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version and exit")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Printf("reclaimd v%s (commit: %s, built: %s)\n", Version, GitCommit, BuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logOut, err := logOutput(cfg)
	if err != nil {
		return err
	}
	if c, ok := logOut.(io.Closer); ok {
		defer c.Close()
	}
	logging.Init(cfg.Logging.Format, cfg.Logging.Level, logOut)

	d, err := daemon.New(cfg, dupes.NewFinder(dupes.WithVerify(cfg.VerifyContent)))
	if errors.Is(err, daemon.ErrNotEnabled) {
		fmt.Fprintln(os.Stderr, "Daemon not enabled in configuration")
		fmt.Fprintln(os.Stderr, "Add the following to your config file:")
		fmt.Fprintln(os.Stderr, "daemon:")
		fmt.Fprintln(os.Stderr, "  enabled: true")
		fmt.Fprintln(os.Stderr, "  schedules:")
		fmt.Fprintln(os.Stderr, "    - name: nightly")
		fmt.Fprintln(os.Stderr, "      schedule: \"0 2 * * *\"")
		fmt.Fprintln(os.Stderr, "      root: \"~\"")
	}
	if err != nil {
		return err
	}

	if testConfig {
		fmt.Println("Configuration is valid")
		fmt.Printf("Reports: %s\n", config.ExpandPath(cfg.Daemon.ReportDir))
		for _, job := range d.Jobs() {
			fmt.Printf("  - %s: next run %s\n", job.Name, job.NextRun.Format("2006-01-02 15:04"))
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runNow != "" {
		for _, schedule := range cfg.Daemon.Schedules {
			if schedule.Name == runNow {
				path, err := d.RunScan(ctx, schedule)
				if err != nil {
					return err
				}
				fmt.Printf("Report written to %s\n", path)
				return nil
			}
		}
		return fmt.Errorf("no schedule named %q", runNow)
	}

	return d.Run(ctx)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}

	cfgPath, err := config.GetConfigPath()
	if err != nil {
		return nil, err
	}

	return config.Load(cfgPath)
}

func logOutput(cfg *config.Config) (io.Writer, error) {
	if cfg.Logging.File == "" {
		return os.Stderr, nil
	}
	f, err := os.OpenFile(config.ExpandPath(cfg.Logging.File), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
