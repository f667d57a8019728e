package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Gleipnir-Technology/settle/state"
	"github.com/Gleipnir-Technology/settle/ui"
)

// Drives the terminal UI with fake search results so it can be checked by eye.
func main() {
	u, err := ui.NewTUI("echo {query}")
	if err != nil {
		fmt.Printf("new tui: %v\n", err)
		os.Exit(2)
	}
	defer u.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	on_ui := make(chan ui.Event)
	do_ui := make(chan *state.Search, 1)
	go func() {
		if err := u.Run(ctx, on_ui, do_ui); err != nil {
			fmt.Printf("ui run: %v", err)
			os.Exit(3)
		}
	}()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	counter := 0
	s := state.Search{
		Current: &state.Process{
			Output: []byte{},
		},
		Status: state.StatusQueryRunning,
	}
	is_running := true
	for is_running {
		select {
		case <-ticker.C:
			counter++
			s.Current.Output = fmt.Appendf(s.Current.Output, "\033[3%dmline %d\033[0m\n", counter%7+1, counter)
			snapshot := s
			snapshot.Current = &state.Process{Output: bytes.Clone(s.Current.Output)}
			do_ui <- &snapshot
		case evt := <-on_ui:
			switch evt.Type {
			case ui.EventExit:
				is_running = false
			case ui.EventInput:
				s.Pending = evt.Text
				s.Settled = evt.Text
				s.Commits++
			}
		}
	}
}
