package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gleipnir-Technology/settle/telemetry"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

var config *Config

func newApp() *cli.App {
	return &cli.App{
		Name:  "settle",
		Usage: "Run expensive work only once its input stops changing.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file path.",
				EnvVars: []string{"SETTLE_CONFIG"},
			},
			&cli.DurationFlag{
				Name:    "delay",
				Aliases: []string{"d"},
				Usage:   "Quiet period before a value settles. Defaults to 500ms.",
				EnvVars: []string{"SETTLE_DELAY"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log at debug level.",
				EnvVars: []string{"SETTLE_VERBOSE"},
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Where to log while the terminal UI owns the screen.",
				EnvVars: []string{"SETTLE_LOG_FILE"},
			},
		},
		Before: func(cCtx *cli.Context) error {
			c, err := loadConfig(cCtx.String("config"))
			if err != nil {
				return err
			}
			if cCtx.IsSet("delay") {
				if cCtx.Duration("delay") < 0 {
					return fmt.Errorf("delay must not be negative")
				}
				c.Delay = cCtx.Duration("delay")
			}
			if cCtx.IsSet("verbose") {
				c.Verbose = cCtx.Bool("verbose")
			}
			if cCtx.IsSet("log-file") {
				c.LogFile = cCtx.String("log-file")
			}
			config = c
			return nil
		},
		Commands: []*cli.Command{
			searchCommand,
			serveCommand,
			watchCommand,
		},
	}
}

// withLogger sets up logging to out and returns a context carrying the logger.
func withLogger(ctx context.Context, out io.Writer, noColor bool) context.Context {
	logger := setupLogging(out, config.Verbose, noColor || os.Getenv("NO_COLOR") != "")
	return logger.WithContext(ctx)
}

// setupTelemetry installs the Prometheus-backed meter provider, optionally also printing to
// stdout, and returns a func that flushes it.
func setupTelemetry(ctx context.Context, stdout bool) func() {
	opts := []telemetry.Option{telemetry.WithPrometheus()}
	if stdout {
		opts = append(opts, telemetry.WithStdout())
	}
	shutdown, err := telemetry.Setup(opts...)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("metrics disabled")
		return func() {}
	}
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to shut down telemetry")
		}
	}
}

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("settle crashed")
	}
}
