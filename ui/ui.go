package ui

import (
	"context"
	"io"

	"github.com/Gleipnir-Technology/settle/state"
)

type EventType int

const (
	EventNone EventType = iota
	EventExit
	EventInput // the query text changed
	// EventInputClosed means no more queries will arrive.
	EventInputClosed
	EventResize
)

type Event struct {
	// Text is the full query for EventInput.
	Text string
	Type EventType
}

type UI interface {
	Close()
	Run(context.Context, chan<- Event, <-chan *state.Search) error
}

func NewTUI(command string) (UI, error) {
	return newUITcell(command)
}

// NewFlat reads one query per line from in and writes one status line per snapshot to out.
func NewFlat(in io.Reader, out io.Writer) UI {
	return newUIFlat(in, out)
}
