package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"tradeengine/internal/app"
	"tradeengine/internal/config"
	"tradeengine/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	mode := os.Args[1]
	switch mode {
	case "backtest", "live":
	case "-h", "-help", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", mode)
		usage()
		os.Exit(1)
	}

	fs := flag.NewFlagSet(mode, flag.ExitOnError)
	cfgPath := fs.String("config", "configs/config.yaml", "path to config.yaml")
	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(1)
	}

	symbols, days, err := parseBacktestArgs(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "tradeengine: %v\n", err)
		usage()
		os.Exit(1)
	}

	if err := run(mode, *cfgPath, symbols, days); err != nil {
		log.Printf("tradeengine: %v", err)
		os.Exit(1)
	}
}

// parseBacktestArgs parses the optional `[symbols] [days]` positional
// arguments to the backtest subcommand: a comma-separated symbol list
// and an integer day count. Both are optional; live mode ignores them.
func parseBacktestArgs(args []string) (symbols []string, days int, err error) {
	if len(args) > 0 && args[0] != "" {
		for _, s := range strings.Split(args[0], ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, s)
			}
		}
	}
	if len(args) > 1 {
		days, err = strconv.Atoi(args[1])
		if err != nil {
			return nil, 0, fmt.Errorf("invalid days argument %q: %w", args[1], err)
		}
	}
	if len(args) > 2 {
		return nil, 0, fmt.Errorf("unexpected extra argument %q", args[2])
	}
	return symbols, days, nil
}

func run(mode, cfgPath string, symbolsOverride []string, daysOverride int) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		return fmt.Errorf("init log output: %w", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	out := io.Writer(os.Stdout)
	if logFile != nil {
		out = io.MultiWriter(os.Stdout, logFile)
	}
	log := logger.New(out, cfg.App.LogLevel)
	log.Infof("config loaded (env=%s, mode=%s, symbols=%d)", cfg.App.Env, mode, len(cfg.Symbols))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.Build(ctx, cfgPath, cfg, log)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer a.Close()

	switch mode {
	case "backtest":
		return a.RunBacktest(ctx, symbolsOverride, daysOverride)
	default:
		return a.RunLive(ctx)
	}
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: tradeengine backtest [-config path/to/config.yaml] [symbols] [days]")
	fmt.Fprintln(os.Stderr, "       tradeengine live [-config path/to/config.yaml]")
	fmt.Fprintln(os.Stderr, "  symbols defaults to the first 3 configured symbols; days defaults to 7")
}
