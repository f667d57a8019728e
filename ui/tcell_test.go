package ui

import (
	"testing"

	"github.com/gdamore/tcell/v3"
	"github.com/stretchr/testify/assert"
)

func key(k tcell.Key) tcell.Event {
	return tcell.NewEventKey(k, "", tcell.ModNone)
}

func runes(s string) tcell.Event {
	return tcell.NewEventKey(tcell.KeyRune, s, tcell.ModNone)
}

func TestHandleEvent(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		evt       tcell.Event
		want      Event
		wantQuery string
	}{
		{"typing appends", "go", runes("p"), Event{Type: EventInput, Text: "gop"}, "gop"},
		{"typing multibyte", "caf", runes("é"), Event{Type: EventInput, Text: "café"}, "café"},
		{"backspace deletes", "gop", key(tcell.KeyBackspace), Event{Type: EventInput, Text: "go"}, "go"},
		{"backspace deletes a rune", "café", key(tcell.KeyBackspace), Event{Type: EventInput, Text: "caf"}, "caf"},
		{"backspace on empty query", "", key(tcell.KeyBackspace), Event{Type: EventNone}, ""},
		{"ctrl-u clears", "gopher", tcell.NewEventKey(tcell.KeyCtrlU, "", tcell.ModCtrl), Event{Type: EventInput, Text: ""}, ""},
		{"escape exits", "go", key(tcell.KeyEscape), Event{Type: EventExit}, "go"},
		{"ctrl-c exits", "go", tcell.NewEventKey(tcell.KeyCtrlC, "", tcell.ModCtrl), Event{Type: EventExit}, "go"},
		{"other keys ignored", "go", key(tcell.KeyUp), Event{Type: EventNone}, "go"},
		{"resize", "go", tcell.NewEventResize(80, 24), Event{Type: EventResize}, "go"},
		{"paste ignored", "go", tcell.NewEventPaste(true), Event{Type: EventNone}, "go"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &uiTcell{query: []rune(tt.query)}
			assert.Equal(t, tt.want, u.handleEvent(tt.evt))
			assert.Equal(t, tt.wantQuery, string(u.query))
		})
	}
}
