package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Gleipnir-Technology/settle/debounce"
	"github.com/Gleipnir-Technology/settle/process"
	"github.com/Gleipnir-Technology/settle/state"
	"github.com/Gleipnir-Technology/settle/subscription"
	"github.com/Gleipnir-Technology/settle/ui"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

var searchCommand = &cli.Command{
	Name:      "search",
	Usage:     "Search as you type: rerun a command once the query stops changing.",
	ArgsUsage: "[-- command with {query}]",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "flat",
			Usage: "Read queries line by line from stdin and print plain status lines.",
		},
	},
	Action: func(cCtx *cli.Context) error {
		command := config.Search.Command
		if cCtx.Args().Present() {
			command = cCtx.Args().Slice()
		}
		if len(command) == 0 {
			return process.ErrNoCommand
		}

		var u ui.UI
		var ctx context.Context
		if cCtx.Bool("flat") {
			ctx = withLogger(cCtx.Context, os.Stderr, false)
			u = ui.NewFlat(os.Stdin, os.Stdout)
		} else {
			file, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer file.Close()
			ctx = withLogger(cCtx.Context, file, false)
			u, err = ui.NewTUI(strings.Join(command, " "))
			if err != nil {
				return fmt.Errorf("failed to create UI: %w", err)
			}
		}
		defer u.Close()

		session := newSearchSession(command, config.Delay)
		return session.Run(ctx, u)
	},
}

// uiEventBuffer lets the UI keep taking keystrokes while the loop waits on a restart.
const uiEventBuffer = 64

// searchSession ties keystrokes, the debounced query and the command together. All
// of its state is owned by the Run loop.
type searchSession struct {
	chanSomethingDied chan error
	chanUIEvents      chan ui.Event
	command           []string
	delay             time.Duration
	inputClosed       bool
	isRunning         bool
	proc              *process.Process
	snapshots         *subscription.Manager[*state.Search]
	state             state.Search
}

func newSearchSession(command []string, delay time.Duration) *searchSession {
	return &searchSession{
		chanSomethingDied: make(chan error, 1),
		chanUIEvents:      make(chan ui.Event, uiEventBuffer),
		command:           command,
		delay:             delay,
		isRunning:         true,
		proc:              process.New(command[0]),
		snapshots:         subscription.NewManager[*state.Search](),
		state: state.Search{
			Status: state.StatusQueryIdle,
		},
	}
}

func (s *searchSession) Run(ctx context.Context, u ui.UI) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	logger := log.Ctx(ctx)

	query := debounce.NewComparable(ctx, "",
		debounce.WithDelay(s.delay),
		debounce.WithName("query"),
		// Only the newest settled query is worth running.
		debounce.WithSubscriberBuffer(1),
	)
	defer query.Close()
	settled := query.Subscribe()
	defer settled.Close()

	defer s.proc.Close()
	subExit := s.proc.OnExit.Subscribe()
	subOutput := s.proc.OnOutput.Subscribe()
	defer subExit.Close()
	defer subOutput.Close()

	uiStates := s.snapshots.SubscribeBuffered(1)
	defer s.snapshots.Close()
	uiDone := make(chan struct{})
	go func() {
		defer close(uiDone)
		if err := u.Run(ctx, s.chanUIEvents, uiStates.C); err != nil {
			s.chanSomethingDied <- fmt.Errorf("ui died: %w", err)
		}
	}()

	var cause_of_death error
	for s.isRunning && !s.finished() {
		s.publish()
		select {
		case <-ctx.Done():
			logger.Debug().Msg("context ended, exiting search")
			s.isRunning = false
		case cause_of_death = <-s.chanSomethingDied:
			logger.Error().Err(cause_of_death).Msg("something died")
			s.isRunning = false
		case evt := <-s.chanUIEvents:
			s.handleEventUI(query, evt)
		case q, ok := <-settled.C:
			if !ok {
				s.isRunning = false
				continue
			}
			s.handleSettled(ctx, q)
		case <-subOutput.C:
			s.state.Current = s.proc.Snapshot()
		case <-subExit.C:
			// Exits of runs that were restarted or cleared are stale.
			if s.proc.Running() || s.state.Settled == "" {
				continue
			}
			s.state.Current = s.proc.Snapshot()
			if !s.state.Armed {
				s.state.Status = exitStatus(s.state.Current)
			}
		}
	}
	logger.Debug().Msg("exiting search loop")
	// Let the UI show the final state before it stops.
	s.publish()
	cancel()
	<-uiDone
	return cause_of_death
}

// finished reports whether input has ended and nothing is left to wait for.
func (s *searchSession) finished() bool {
	if !s.inputClosed {
		return false
	}
	switch s.state.Status {
	case state.StatusQueryWaiting, state.StatusQueryRunning:
		return false
	}
	return true
}

func (s *searchSession) handleEventUI(query *debounce.Holder[string], evt ui.Event) {
	switch evt.Type {
	case ui.EventExit:
		s.isRunning = false
	case ui.EventInputClosed:
		s.inputClosed = true
	case ui.EventInput:
		query.Observe(evt.Text)
		s.state.Pending, s.state.Armed = query.Pending()
		if s.state.Armed {
			s.state.Status = state.StatusQueryWaiting
		}
	}
}

func (s *searchSession) handleSettled(ctx context.Context, q string) {
	logger := log.Ctx(ctx).With().Str("query", q).Logger()
	s.state.Settled = q
	s.state.Armed = false
	s.state.Commits++
	if s.state.Current != nil {
		s.state.Previous = s.state.Current
	}
	s.state.Current = nil

	if q == "" {
		s.proc.Stop()
		s.state.Status = state.StatusQueryIdle
		return
	}
	args := process.ExpandArgs(s.command, placeholderQuery, q)
	s.proc.SetArgs(args[1:]...)
	if err := s.proc.Restart(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to run search")
		s.state.Status = state.StatusQueryFailed
		return
	}
	logger.Info().Msg("search started")
	s.state.Status = state.StatusQueryRunning
}

// publish hands the UI a copy of the current state. Slow UIs only see the latest.
func (s *searchSession) publish() {
	snapshot := s.state
	s.snapshots.Publish(&snapshot)
}

func exitStatus(p *state.Process) state.StatusQuery {
	if p != nil && p.ExitCode != nil && *p.ExitCode == 0 {
		return state.StatusQueryDone
	}
	return state.StatusQueryFailed
}
