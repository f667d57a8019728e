package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Gleipnir-Technology/settle/state"
	"github.com/rs/zerolog/log"
)

type uiFlat struct {
	in  io.Reader
	out io.Writer
}

func newUIFlat(in io.Reader, out io.Writer) *uiFlat {
	return &uiFlat{
		in:  in,
		out: out,
	}
}
func (u *uiFlat) Close() {}
func (u *uiFlat) Run(ctx context.Context, chanOnEvent chan<- Event, chanNewState <-chan *state.Search) error {
	logger := log.Ctx(ctx).With().Caller().Logger()
	go u.read(ctx, chanOnEvent)
	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("context ended, exiting UI")
			u.drain(chanNewState)
			return nil
		case s := <-chanNewState:
			if s != nil {
				u.dump(s)
			}
		}
	}
}
func (u *uiFlat) read(ctx context.Context, chanOnEvent chan<- Event) {
	logger := log.Ctx(ctx)
	scanner := bufio.NewScanner(u.in)
	for scanner.Scan() {
		select {
		case chanOnEvent <- Event{Type: EventInput, Text: scanner.Text()}:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn().Err(err).Msg("failed to read queries")
	}
	logger.Debug().Msg("query input closed")
	select {
	case chanOnEvent <- Event{Type: EventInputClosed}:
	case <-ctx.Done():
	}
}

// drain prints snapshots that were published just before shutdown.
func (u *uiFlat) drain(chanNewState <-chan *state.Search) {
	for {
		select {
		case s, ok := <-chanNewState:
			if !ok {
				return
			}
			if s != nil {
				u.dump(s)
			}
		default:
			return
		}
	}
}
func (u *uiFlat) dump(s *state.Search) {
	output := strings.TrimSpace(StripColorCodes(s.Output()))
	if output == "" {
		output = "no output"
	} else if first, _, found := strings.Cut(output, "\n"); found {
		output = first + " ..."
	}
	fmt.Fprintf(u.out, "%s\t%d\t%q\t%s\n",
		s.Status,
		s.Commits,
		s.Settled,
		output,
	)
}
