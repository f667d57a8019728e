package main

import (
	"os"

	"github.com/Gleipnir-Technology/settle/debounce"
	"github.com/Gleipnir-Technology/settle/webserver"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Debounce values posted over HTTP and stream each commit.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "Address to listen on.",
			EnvVars: []string{"SETTLE_BIND"},
		},
		&cli.BoolFlag{
			Name:    "metrics-stdout",
			Usage:   "Also print metrics to stdout periodically.",
			EnvVars: []string{"SETTLE_METRICS_STDOUT"},
		},
	},
	Action: func(cCtx *cli.Context) error {
		ctx := withLogger(cCtx.Context, os.Stderr, false)
		logger := log.Ctx(ctx)
		bind := config.Bind
		if cCtx.IsSet("bind") {
			bind = cCtx.String("bind")
		}

		shutdown := setupTelemetry(ctx, cCtx.Bool("metrics-stdout"))
		defer shutdown()

		holder := debounce.New(ctx, "", debounce.WithDelay(config.Delay), debounce.WithName("serve"))
		defer holder.Close()

		sub := holder.Subscribe()
		defer sub.Close()
		go func() {
			for v := range sub.C {
				logger.Info().Str("value", v).Msg("settled")
			}
		}()

		return webserver.New(holder).Start(ctx, bind)
	},
}
