// Package state holds the snapshots pushed to search front ends.
package state

import (
	"encoding/json"
)

type Process struct {
	ExitCode *int   `json:"exit_code,omitempty"`
	Output   []byte `json:"output"`
	Stderr   []byte `json:"stderr"`
	Stdout   []byte `json:"stdout"`
}

// Search is a snapshot of a search-as-you-type session.
type Search struct {
	// Pending is the query as typed, possibly not settled yet.
	Pending string `json:"pending"`
	// Settled is the last query that stopped changing long enough to run.
	Settled  string      `json:"settled"`
	Armed    bool        `json:"armed"`
	Commits  int         `json:"commits"`
	Status   StatusQuery `json:"status"`
	Current  *Process    `json:"current,omitempty"`
	Previous *Process    `json:"previous,omitempty"`
}

// Output returns the most relevant command output: the current run, or the previous one
// while the current run has produced nothing.
func (s *Search) Output() []byte {
	if s.Current != nil && len(s.Current.Output) > 0 {
		return s.Current.Output
	}
	if s.Previous != nil {
		return s.Previous.Output
	}
	return nil
}

type StatusQuery int

const (
	StatusQueryIdle StatusQuery = iota
	StatusQueryWaiting
	StatusQueryRunning
	StatusQueryDone
	StatusQueryFailed
)

func (s StatusQuery) String() string {
	switch s {
	case StatusQueryIdle:
		return "idle"
	case StatusQueryWaiting:
		return "waiting"
	case StatusQueryRunning:
		return "running"
	case StatusQueryDone:
		return "done"
	case StatusQueryFailed:
		return "failed"
	}
	return "unknown"
}

func StatusQueryFromString(s string) StatusQuery {
	switch s {
	case "waiting":
		return StatusQueryWaiting
	case "running":
		return StatusQueryRunning
	case "done":
		return StatusQueryDone
	case "failed":
		return StatusQueryFailed
	}
	return StatusQueryIdle
}

func (s StatusQuery) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *StatusQuery) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	*s = StatusQueryFromString(str)
	return nil
}
