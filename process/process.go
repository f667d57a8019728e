package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/Gleipnir-Technology/settle/state"
	"github.com/Gleipnir-Technology/settle/subscription"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoCommand = errors.New("no command configured")
	ErrRunning   = errors.New("process already running")
)

const stopTimeout = 3 * time.Second

// Process runs a command, possibly many times, and publishes what it does.
type Process struct {
	OnExit   *subscription.Manager[*os.ProcessState]
	OnOutput *subscription.Manager[[]byte]
	OnStart  *subscription.Manager[struct{}]
	OnStderr *subscription.Manager[[]byte]
	OnStdout *subscription.Manager[[]byte]

	args   []string
	dir    string
	target string

	mu       sync.Mutex
	cmd      *exec.Cmd
	exitCode *int
	exited   chan struct{}
	// Interleaved stdout and stderr of the current run
	output bytes.Buffer
	stderr bytes.Buffer
	stdout bytes.Buffer
}

func New(target string, args ...string) *Process {
	return &Process{
		OnExit:   subscription.NewManager[*os.ProcessState](),
		OnOutput: subscription.NewManager[[]byte](),
		OnStart:  subscription.NewManager[struct{}](),
		OnStderr: subscription.NewManager[[]byte](),
		OnStdout: subscription.NewManager[[]byte](),
		args:     args,
		target:   target,
	}
}

// FromTemplate builds a process from a command template such as
// ["grep", "-rn", "{query}", "."], substituting value for placeholder.
func FromTemplate(template []string, placeholder, value string) (*Process, error) {
	if len(template) == 0 {
		return nil, ErrNoCommand
	}
	expanded := ExpandArgs(template, placeholder, value)
	return New(expanded[0], expanded[1:]...), nil
}

// ExpandArgs replaces placeholder in every element of template. When no element mentions
// the placeholder, value is appended as a final argument.
func ExpandArgs(template []string, placeholder, value string) []string {
	result := make([]string, 0, len(template)+1)
	found := false
	for _, arg := range template {
		if strings.Contains(arg, placeholder) {
			found = true
			arg = strings.ReplaceAll(arg, placeholder, value)
		}
		result = append(result, arg)
	}
	if !found {
		result = append(result, value)
	}
	return result
}

// Close stops the process and closes every subscription.
func (p *Process) Close() {
	p.Stop()
	p.OnExit.Close()
	p.OnOutput.Close()
	p.OnStart.Close()
	p.OnStderr.Close()
	p.OnStdout.Close()
}

// Restart stops the process if it is running, waits for it to exit, then starts it again.
func (p *Process) Restart(ctx context.Context) error {
	p.Stop()
	return p.Start(ctx)
}

func (p *Process) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmd != nil
}

// SetArgs replaces the arguments used by the next Start.
func (p *Process) SetArgs(args ...string) {
	p.mu.Lock()
	p.args = args
	p.mu.Unlock()
}

func (p *Process) SetDir(d string) {
	p.mu.Lock()
	p.dir = d
	p.mu.Unlock()
}

// Snapshot copies the output of the current (or last) run.
func (p *Process) Snapshot() *state.Process {
	p.mu.Lock()
	defer p.mu.Unlock()
	var code *int
	if p.exitCode != nil {
		c := *p.exitCode
		code = &c
	}
	return &state.Process{
		ExitCode: code,
		Output:   bytes.Clone(p.output.Bytes()),
		Stderr:   bytes.Clone(p.stderr.Bytes()),
		Stdout:   bytes.Clone(p.stdout.Bytes()),
	}
}

// Start runs the command without waiting for it. The command is interrupted when ctx is
// cancelled.
func (p *Process) Start(ctx context.Context) error {
	logger := log.Ctx(ctx).With().Str("target", p.target).Logger()

	p.mu.Lock()
	if p.cmd != nil {
		p.mu.Unlock()
		return ErrRunning
	}
	p.output.Reset()
	p.stderr.Reset()
	p.stdout.Reset()
	p.exitCode = nil

	cmd := exec.CommandContext(ctx, p.target, p.args...)
	cmd.Dir = p.dir
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = stopTimeout

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("failed to get stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("failed to start '%s': %w", p.target, err)
	}
	exited := make(chan struct{})
	p.cmd = cmd
	p.exited = exited
	p.mu.Unlock()

	logger.Debug().Strs("args", cmd.Args[1:]).Int("pid", cmd.Process.Pid).Msg("process started")
	p.OnStart.Publish(struct{}{})

	var readers sync.WaitGroup
	readers.Add(2)
	go p.scan(&readers, stdout, p.OnStdout, &p.stdout)
	go p.scan(&readers, stderr, p.OnStderr, &p.stderr)

	go func() {
		readers.Wait()
		err := cmd.Wait()
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			logger.Warn().Err(err).Msg("wait failed")
		}
		code := cmd.ProcessState.ExitCode()

		p.mu.Lock()
		p.exitCode = &code
		p.cmd = nil
		p.mu.Unlock()

		logger.Debug().Int("code", code).Msg("process exited")
		p.OnExit.Publish(cmd.ProcessState)
		close(exited)
	}()
	return nil
}

// Stop interrupts the process and waits for it to exit. After 3 seconds the process is
// killed. Stop returns immediately when nothing is running.
func (p *Process) Stop() {
	p.mu.Lock()
	cmd := p.cmd
	exited := p.exited
	p.mu.Unlock()
	if cmd == nil {
		return
	}

	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		log.Debug().Err(err).Msg("interrupt failed")
	}
	select {
	case <-exited:
	case <-time.After(stopTimeout):
		if err := cmd.Process.Kill(); err != nil {
			log.Warn().Err(err).Msg("kill failed")
		}
		<-exited
	}
}

// Wait blocks until the current run exits. It returns immediately when nothing is running.
func (p *Process) Wait() {
	p.mu.Lock()
	exited := p.exited
	p.mu.Unlock()
	if exited != nil {
		<-exited
	}
}

func (p *Process) scan(
	wg *sync.WaitGroup,
	r io.Reader,
	mgr *subscription.Manager[[]byte],
	buf *bytes.Buffer,
) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := bytes.Clone(scanner.Bytes())
		p.mu.Lock()
		buf.Write(line)
		buf.WriteByte('\n')
		p.output.Write(line)
		p.output.WriteByte('\n')
		p.mu.Unlock()
		mgr.Publish(line)
		p.OnOutput.Publish(line)
	}
}
