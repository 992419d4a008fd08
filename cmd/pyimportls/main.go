package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/davidrios/pyimportls/internal/config"
	"github.com/davidrios/pyimportls/internal/debug"
	"github.com/davidrios/pyimportls/internal/indexer"
	"github.com/davidrios/pyimportls/internal/version"
)

func main() {
	app := &cli.App{
		Name:      "pyimportls",
		Usage:     "Scan a Python installation's import path and list each module's public symbols",
		Version:   version.Info(),
		ArgsUsage: "[python-interpreter]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   config.DefaultPath,
			},
			&cli.IntFlag{
				Name:    "max-workers",
				Aliases: []string{"j"},
				Usage:   "Parse pool worker limit (0 = one per CPU)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Skip files matching glob patterns (e.g. --exclude '**/test_*.py')",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only print the summary",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Write scan and parse diagnostics to stderr",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("debug") {
		debug.SetOutput(os.Stderr)
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.Args().Len() > 0 {
		cfg.Interpreter = c.Args().First()
	}
	if c.Int("max-workers") > 0 {
		cfg.MaxWorkers = c.Int("max-workers")
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludes...)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	quiet := c.Bool("quiet")
	report := func(res indexer.FileResult) {
		if quiet || res.Err != nil || res.Duplicate || res.Module == "" {
			return
		}
		for _, sym := range res.Symbols {
			fmt.Printf("%s\t%s\t%s\n", res.Module, sym.Kind, sym.Name)
		}
	}

	stats, err := indexer.Run(ctx, cfg.Interpreter, indexer.Options{
		Workers: cfg.Workers(),
		Exclude: cfg.Exclude,
		Report:  report,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "scanned %d files (%d duplicate, %d failed), %d public symbols\n",
		stats.Files, stats.Duplicates, stats.Errors, stats.Symbols)
	return nil
}
