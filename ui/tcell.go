package ui

import (
	"context"
	"fmt"
	"reflect"

	"github.com/Gleipnir-Technology/settle/state"
	"github.com/gdamore/tcell/v3"
	"github.com/gdamore/tcell/v3/color"
	"github.com/rs/zerolog/log"
)

const prompt = "> "

type uiTcell struct {
	command string
	last    *state.Search
	query   []rune
	screen  tcell.Screen
}

func newUITcell(command string) (*uiTcell, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to init screen: %w", err)
	}

	// Set default text style
	defStyle := tcell.StyleDefault.Background(color.Reset).Foreground(color.Reset)
	screen.SetStyle(defStyle)

	screen.Clear()
	return &uiTcell{
		command: command,
		query:   make([]rune, 0),
		screen:  screen,
	}, nil
}
func (u *uiTcell) Close() {
	u.screen.Fini()
}
func (u *uiTcell) Run(ctx context.Context, chanOnEvent chan<- Event, chanNewState <-chan *state.Search) error {
	logger := log.Ctx(ctx).With().Caller().Logger()
	logger.Info().Msg("Started ui loop")
	u.redraw()
	for {
		u.screen.Show()
		select {
		case <-ctx.Done():
			logger.Debug().Msg("context ended, exiting UI")
			return nil
		case evt := <-u.screen.EventQ():
			e := u.handleEvent(evt)
			switch e.Type {
			case EventNone:
				continue
			case EventResize:
				u.screen.Sync()
			}
			u.redraw()
			select {
			case chanOnEvent <- e:
			case <-ctx.Done():
				return nil
			}
		case s := <-chanNewState:
			logger.Debug().Msg("new ui state")
			u.last = s
			u.redraw()
		}
	}
}

// handleEvent applies line editing keys to the query and converts evt into an Event.
func (u *uiTcell) handleEvent(evt tcell.Event) Event {
	logger := log.Logger
	switch ev := evt.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyCtrlC, tcell.KeyEscape:
			logger.Debug().Msg("exit requested")
			return Event{Type: EventExit}
		case tcell.KeyCtrlU:
			u.query = u.query[:0]
		case tcell.KeyBackspace:
			if len(u.query) == 0 {
				return Event{Type: EventNone}
			}
			u.query = u.query[:len(u.query)-1]
		case tcell.KeyRune:
			u.query = append(u.query, []rune(ev.Str())...)
		default:
			return Event{Type: EventNone}
		}
		return Event{Type: EventInput, Text: string(u.query)}
	case *tcell.EventPaste:
		logger.Debug().Msg("event paste")
		return Event{Type: EventNone}
	case *tcell.EventResize:
		return Event{Type: EventResize}
	case nil:
		logger.Debug().Msg("unrecognized nil event")
		return Event{Type: EventNone}
	default:
		logger.Debug().Str("type", reflect.TypeOf(evt).String()).Msg("ignored event")
		return Event{Type: EventNone}
	}
}

func (u *uiTcell) redraw() {
	u.screen.Clear()
	u.drawTitle(u.last)
	u.drawText(0, 1, tcell.StyleDefault.Bold(true), prompt+string(u.query))
	u.screen.ShowCursor(len(prompt)+len(u.query), 1)
	if u.last == nil {
		u.drawText(0, 2, tcell.StyleDefault.Foreground(color.White), "type to search")
		return
	}
	u.drawText(0, 2, tcell.StyleDefault.Foreground(color.White), fmt.Sprintf("settled: %q", u.last.Settled))
	output := u.last.Output()
	if len(output) == 0 {
		u.drawText(0, 4, tcell.StyleDefault.Foreground(color.White), "no output")
		return
	}
	DrawBytesMultiline(u.screen, 0, 4, output)
}
func (u *uiTcell) drawText(x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		u.screen.SetContent(x+i, y, r, nil, style)
	}
}
func (u *uiTcell) drawTitle(s *state.Search) {
	status := state.StatusQueryIdle
	commits := 0
	if s != nil {
		status = s.Status
		commits = s.Commits
	}
	style := tcell.StyleDefault.Bold(true)
	switch status {
	case state.StatusQueryIdle:
		style = style.Foreground(color.Green)
	case state.StatusQueryWaiting:
		style = style.Foreground(color.Blue)
	case state.StatusQueryRunning:
		style = style.Foreground(color.Yellow)
	case state.StatusQueryDone:
		style = style.Foreground(color.Green)
	case state.StatusQueryFailed:
		style = style.Foreground(color.Red)
	default:
		style = style.Foreground(color.Purple)
	}
	u.drawText(0, 0, style, status.String())
	u.drawText(10, 0, tcell.StyleDefault, fmt.Sprintf("runs: %d", commits))
	u.drawText(22, 0, tcell.StyleDefault.Foreground(color.White), u.command)
}
