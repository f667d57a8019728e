package process_test

import (
	"context"
	"testing"
	"time"

	"github.com/Gleipnir-Technology/settle/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandArgs(t *testing.T) {
	tests := []struct {
		name     string
		template []string
		value    string
		expected []string
	}{
		{
			name:     "replaces placeholder",
			template: []string{"grep", "-rn", "{query}", "."},
			value:    "gopher",
			expected: []string{"grep", "-rn", "gopher", "."},
		},
		{
			name:     "replaces inside an argument",
			template: []string{"sh", "-c", "echo {query} {query}"},
			value:    "hi",
			expected: []string{"sh", "-c", "echo hi hi"},
		},
		{
			name:     "appends when absent",
			template: []string{"grep", "-rn"},
			value:    "gopher",
			expected: []string{"grep", "-rn", "gopher"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, process.ExpandArgs(tt.template, "{query}", tt.value))
		})
	}
}

func TestFromTemplateEmpty(t *testing.T) {
	_, err := process.FromTemplate(nil, "{query}", "x")
	require.ErrorIs(t, err, process.ErrNoCommand)
}

func TestProcessCapturesOutputAndExitCode(t *testing.T) {
	p, err := process.FromTemplate([]string{"sh", "-c", "echo {query}; echo err >&2; exit 3"}, "{query}", "out")
	require.NoError(t, err)
	defer p.Close()
	exit := p.OnExit.Subscribe()
	start := p.OnStart.Subscribe()

	require.NoError(t, p.Start(context.Background()))
	select {
	case <-start.C:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "no start event")
	}
	select {
	case ps := <-exit.C:
		assert.Equal(t, 3, ps.ExitCode())
	case <-time.After(5 * time.Second):
		require.FailNow(t, "process did not exit")
	}

	snap := p.Snapshot()
	require.NotNil(t, snap.ExitCode)
	assert.Equal(t, 3, *snap.ExitCode)
	assert.Equal(t, "out\n", string(snap.Stdout))
	assert.Equal(t, "err\n", string(snap.Stderr))
	assert.Len(t, snap.Output, len("out\nerr\n"))
	assert.False(t, p.Running())
}

func TestProcessStopInterrupts(t *testing.T) {
	p := process.New("sleep", "30")
	defer p.Close()

	require.NoError(t, p.Start(context.Background()))
	require.True(t, p.Running())
	require.ErrorIs(t, p.Start(context.Background()), process.ErrRunning)

	begin := time.Now()
	p.Stop()
	assert.Less(t, time.Since(begin), 3*time.Second)
	assert.False(t, p.Running())

	// Stopping an idle process is a no-op.
	p.Stop()
}

func TestProcessRestartUsesNewArgs(t *testing.T) {
	p := process.New("echo", "first")
	defer p.Close()
	ctx := context.Background()

	require.NoError(t, p.Start(ctx))
	p.Wait()
	assert.Equal(t, "first\n", string(p.Snapshot().Stdout))

	p.SetArgs("second")
	require.NoError(t, p.Restart(ctx))
	p.Wait()
	assert.Equal(t, "second\n", string(p.Snapshot().Stdout))
}

func TestProcessContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := process.New("sleep", "30")
	defer p.Close()

	require.NoError(t, p.Start(ctx))
	cancel()

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "process survived context cancellation")
	}
}
