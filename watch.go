package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Gleipnir-Technology/settle/debounce"
	"github.com/Gleipnir-Technology/settle/process"
	"github.com/Gleipnir-Technology/settle/watcher"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

var watchCommand = &cli.Command{
	Name:      "watch",
	Usage:     "Rerun a command once a source tree has stopped changing.",
	ArgsUsage: "[-- command with {path}]",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "ext",
			Usage: "File extensions to watch. Repeat for more than one.",
		},
		&cli.StringFlag{
			Name:  "root",
			Usage: "Directory to watch recursively.",
		},
	},
	Action: func(cCtx *cli.Context) error {
		ctx := withLogger(cCtx.Context, os.Stderr, false)
		w := watcher.Watcher{
			Extensions: config.Watch.Extensions,
			Root:       config.Watch.Root,
			Skip:       config.Watch.Skip,
		}
		if cCtx.IsSet("ext") {
			w.Extensions = cCtx.StringSlice("ext")
		}
		if cCtx.IsSet("root") {
			w.Root = cCtx.String("root")
		}
		command := config.Watch.Command
		if cCtx.Args().Present() {
			command = cCtx.Args().Slice()
		}
		if len(command) == 0 {
			return process.ErrNoCommand
		}
		return runWatch(ctx, w, command, config.Delay)
	},
}

// runWatch reruns command each time the watched tree has been quiet for delay. The
// most recently changed path is substituted for {path}.
func runWatch(ctx context.Context, w watcher.Watcher, command []string, delay time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	logger := log.Ctx(ctx)

	changed := debounce.New(ctx, "", debounce.WithDelay(delay), debounce.WithName("watch"))
	defer changed.Close()
	settled := changed.Subscribe()
	defer settled.Close()

	p := process.New(command[0])
	p.SetDir(w.Root)
	defer p.Close()
	subExit := p.OnExit.Subscribe()
	subStderr := p.OnStderr.Subscribe()
	subStdout := p.OnStdout.Subscribe()
	defer subExit.Close()
	defer subStderr.Close()
	defer subStdout.Close()

	chanSomethingDied := make(chan error, 1)
	go func() {
		if err := w.Run(ctx, func(path string) {
			logger.Debug().Str("path", path).Msg("changed")
			changed.Observe(path)
		}); err != nil {
			chanSomethingDied <- fmt.Errorf("watcher died: %w", err)
		}
	}()

	logger.Info().Str("root", w.Root).Strs("ext", w.Extensions).Msg("watching")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutdown watch")
			return nil
		case err := <-chanSomethingDied:
			return err
		case path, ok := <-settled.C:
			if !ok {
				return nil
			}
			args := process.ExpandArgs(command, placeholderPath, path)
			p.SetArgs(args[1:]...)
			if err := p.Restart(ctx); err != nil {
				logger.Error().Err(err).Str("path", path).Msg("failed to run")
				continue
			}
			logger.Info().Str("path", path).Msg("rerun")
		case line := <-subStdout.C:
			logger.Info().Str("stream", "stdout").Msg(string(line))
		case line := <-subStderr.C:
			logger.Warn().Str("stream", "stderr").Msg(string(line))
		case ps := <-subExit.C:
			if ps == nil {
				continue
			}
			if ps.ExitCode() == 0 {
				logger.Info().Msg("command succeeded")
			} else {
				logger.Error().Int("code", ps.ExitCode()).Msg("command failed")
			}
		}
	}
}
