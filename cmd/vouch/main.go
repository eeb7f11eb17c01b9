package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cgast/vouch/internal/config"
	"github.com/cgast/vouch/internal/inspector"
	"github.com/cgast/vouch/internal/sandbox"
	"github.com/cgast/vouch/pkg/events"
	"github.com/cgast/vouch/pkg/history"
	"github.com/cgast/vouch/pkg/verify"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	// Subcommands that don't need full initialization.
	switch os.Args[1] {
	case "init":
		if err := handleInit(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	case "validate":
		if err := handleValidate(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	case "help", "-h", "--help":
		printUsage()
		return
	}

	cfg, err := config.Load(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: logger init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	app, err := newApp(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	switch os.Args[1] {
	case "run":
		if err := app.handleRun(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "demo":
		if err := app.handleDemo(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "agent":
		app.runAgentMode()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: vouch <command> [args]

Commands:
  run <intent.yaml> [--param key=value ...]   execute an intent file
  validate <intent.yaml>                      check an intent file without running it
  init [--output=<path>]                      scaffold a starter intent file
  demo                                        run a built-in demo intent
  agent                                       JSON-RPC mode on stdin/stdout`)
}

// app bundles the long-lived components a full command needs.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	runner *verify.Runner
	hist   *history.Store
	insp   *inspector.Server
}

func newApp(cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	runnerOpts := []verify.Option{verify.WithLogger(logger)}

	if len(cfg.Sandbox.AllowedPaths) > 0 || len(cfg.Sandbox.DeniedPaths) > 0 {
		sb, err := sandbox.New(sandbox.Config{
			AllowedPaths: cfg.Sandbox.AllowedPaths,
			DeniedPaths:  cfg.Sandbox.DeniedPaths,
			MaxFileSize:  cfg.Sandbox.MaxFileSize,
		})
		if err != nil {
			return nil, fmt.Errorf("sandbox init: %w", err)
		}
		runnerOpts = append(runnerOpts, verify.WithGuard(sb))
	}

	if cfg.GitHub.Token != "" {
		gh, err := verify.NewGitHubClient(cfg.GitHub.Token)
		if err != nil {
			logger.Warn("github client init failed", zap.Error(err))
		} else {
			runnerOpts = append(runnerOpts, verify.WithGitHub(gh))
		}
	}

	a.runner = verify.NewRunner(runnerOpts...)

	if cfg.History.Persist {
		path := cfg.History.Path
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("history dir: %w", err)
			}
		}
		store, err := history.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.hist = store
	}

	if cfg.Inspector.Enabled {
		a.insp = inspector.New(a.hist, logger)
		a.insp.StartAsync(cfg.Inspector.Port)
		fmt.Fprintf(os.Stderr, "Inspector running at http://localhost:%d\n", cfg.Inspector.Port)
	}

	return a, nil
}

func (a *app) Close() {
	if a.hist != nil {
		a.hist.Close()
	}
}

// sink returns the live event sink for executions: the inspector
// stream when enabled, nil otherwise. Callers may chain their own
// rendering on top.
func (a *app) sink() events.Sink {
	if a.insp != nil {
		return a.insp.Sink()
	}
	return nil
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		lvl = parsed
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.OutputPaths = []string{"stderr"}
	return zcfg.Build()
}

func configPath() string {
	return filepath.Join(".vouch", "config.yaml")
}
