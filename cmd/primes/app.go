package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/draganm/primes/internal/numio"
	"github.com/draganm/primes/internal/primes"
	"github.com/draganm/primes/internal/server"
	"github.com/draganm/primes/pkg/client"
)

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "primes",
		Usage:     "Print the first N primes, N is read from standard input",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level (debug, info, warn, error)",
				EnvVars: []string{"PRIMES_LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:    "strict-input",
				Usage:   "fail with 'unexpected end of input' when nothing follows the number",
				EnvVars: []string{"PRIMES_STRICT_INPUT"},
			},
		},
		Before: func(c *cli.Context) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
				return fmt.Errorf("invalid log level %q: %w", c.String("log-level"), err)
			}
			// stdout carries the primes, diagnostics go to stderr
			slog.SetDefault(slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level})))
			return nil
		},
		Action: printPrimes,
		Commands: []*cli.Command{
			serveCommand(),
			fetchCommand(),
		},
	}
}

func readCount(c *cli.Context) (int, error) {
	r := numio.NewReader(c.App.Reader)
	r.Strict = c.Bool("strict-input")
	return r.ReadInt()
}

func printPrimes(c *cli.Context) error {
	n, err := readCount(c)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(c.App.Writer)
	if err := primes.Print(c.Context, out, n); err != nil {
		return err
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve prime enumerations over HTTP",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				EnvVars: []string{"PRIMES_PORT"},
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Postgres URL for the run history, runs are kept in memory when empty",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.IntFlag{
				Name:    "max-count",
				Value:   100000,
				Usage:   "largest count accepted per request",
				EnvVars: []string{"PRIMES_MAX_COUNT"},
			},
			&cli.IntFlag{
				Name:    "cleanup-interval",
				Value:   3600,
				Usage:   "seconds between retention sweeps",
				EnvVars: []string{"PRIMES_CLEANUP_INTERVAL"},
			},
			&cli.IntFlag{
				Name:    "run-retention",
				Value:   168,
				Usage:   "hours to keep recorded runs",
				EnvVars: []string{"PRIMES_RUN_RETENTION"},
			},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := server.New(&server.Config{
				DatabaseURL:     c.String("database-url"),
				Port:            c.Int("port"),
				MaxCount:        c.Int("max-count"),
				CleanupInterval: c.Int("cleanup-interval"),
				RunRetention:    c.Int("run-retention"),
				LogLevel:        c.String("log-level"),
			})
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Read N from standard input and print the first N primes computed by a server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:8080",
				EnvVars: []string{"PRIMES_SERVER"},
			},
			&cli.BoolFlag{
				Name:  "no-record",
				Usage: "stream the primes without recording a run",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 5 * time.Minute,
			},
		},
		Action: func(c *cli.Context) error {
			n, err := readCount(c)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
			defer cancel()

			cl := client.NewClientWithOptions(c.String("server"), 3, c.Duration("timeout"))

			var found []int
			if c.Bool("no-record") {
				found, err = cl.Primes(ctx, n)
				if err != nil {
					return fmt.Errorf("failed to fetch primes: %w", err)
				}
			} else {
				run, err := cl.CreateRun(ctx, n)
				if err != nil {
					return fmt.Errorf("failed to create run: %w", err)
				}
				slog.Debug("Run created", "run_id", run.ID, "duration_ms", run.DurationMs)
				found = make([]int, len(run.Primes))
				for i, p := range run.Primes {
					found[i] = int(p)
				}
			}

			out := bufio.NewWriter(c.App.Writer)
			for _, p := range found {
				if err := numio.PrintInt(out, p); err != nil {
					return err
				}
			}
			if err := out.Flush(); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		},
	}
}
