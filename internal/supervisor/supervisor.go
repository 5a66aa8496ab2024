// Package supervisor owns the node child process: spawning, output capture
// and termination. Readiness is somebody else's job; the supervisor only
// guarantees the process started and can always be torn down.
package supervisor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/GriffinCanCode/near-sandbox-go/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// ErrSpawn reports that the node process could not be started.
var ErrSpawn = errors.New("failed to spawn node process")

// defaultLogFilter silences the node's chattier targets when the caller did
// not ask for logs.
const defaultLogFilter = "near=error,stats=error,network=error"

// terminateGrace bounds how long Terminate waits after SIGKILL before giving
// up on the reaper.
const terminateGrace = 5 * time.Second

// maxRetainedLines caps the captured output buffer. Address discovery only
// needs the startup lines; retaining a verbose node's full output would grow
// without bound over the process's lifetime.
const maxRetainedLines = 1024

// Options controls spawn behavior.
type Options struct {
	// LogsEnabled forwards node output through the captured line stream at
	// full verbosity. When false the node still runs with stderr captured
	// (address discovery reads it) but with an error-only log filter.
	LogsEnabled bool
	// LogFilter overrides the RUST_LOG value forwarded to the node.
	LogFilter string
	// LogStyle is forwarded as RUST_LOG_STYLE.
	LogStyle string
}

// Process is a live node process. It is owned by exactly one sandbox handle.
type Process struct {
	cmd  *exec.Cmd
	log  *logging.Logger
	done chan struct{}

	mu    sync.Mutex
	lines []string

	waitErr   error
	terminate sync.Once
}

// Start launches `<bin> --home <home> run` and begins capturing its output.
func Start(bin, home string, opts Options, log *logging.Logger) (*Process, error) {
	if log == nil {
		log = logging.Nop()
	}

	cmd := exec.Command(bin, "--home", home, "run")
	cmd.Env = append(os.Environ(), logEnv(opts)...)

	// The node writes its startup lines, including the bound RPC address, to
	// stderr. Stdout is folded into the same stream.
	pipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	cmd.Stdout = cmd.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawn, bin, err)
	}

	p := &Process{
		cmd:  cmd,
		log:  log,
		done: make(chan struct{}),
	}

	go p.readOutput(pipe, opts.LogsEnabled)

	log.Info("node process started",
		zap.Int("pid", cmd.Process.Pid),
		zap.String("home", home),
	)
	return p, nil
}

// logEnv builds the RUST_LOG environment forwarded to the node.
func logEnv(opts Options) []string {
	filter := opts.LogFilter
	if filter == "" && !opts.LogsEnabled {
		filter = defaultLogFilter
	}

	var env []string
	if filter != "" {
		env = append(env, "RUST_LOG="+filter)
	}
	if opts.LogStyle != "" {
		env = append(env, "RUST_LOG_STYLE="+opts.LogStyle)
	}
	return env
}

// readOutput keeps a line-buffered reader over the process output alive for
// the process's lifetime, then reaps it.
func (p *Process) readOutput(pipe io.Reader, forward bool) {
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		p.mu.Lock()
		if len(p.lines) < maxRetainedLines {
			p.lines = append(p.lines, line)
		}
		p.mu.Unlock()
		if forward {
			p.log.Info(line, zap.String("source", "node"))
		}
	}

	p.waitErr = p.cmd.Wait()
	close(p.done)
}

// Lines returns a snapshot of the output captured so far.
func (p *Process) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.lines))
	copy(out, p.lines)
	return out
}

// PID returns the OS process id.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// ExitErr returns the process's exit error once it has terminated, nil while
// it is still running.
func (p *Process) ExitErr() error {
	select {
	case <-p.done:
		return p.waitErr
	default:
		return nil
	}
}

// Exited reports whether the process has terminated on its own or otherwise.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Terminate kills the process. It is idempotent, tolerates an
// already-exited process and never blocks longer than a bounded grace
// period. Shutdown is forceful: the node gets no chance to flush state.
func (p *Process) Terminate() {
	p.terminate.Do(func() {
		if !p.Exited() {
			if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				p.log.Warn("kill failed", zap.Int("pid", p.PID()), zap.Error(err))
			}
		}

		select {
		case <-p.done:
		case <-time.After(terminateGrace):
			p.log.Warn("process did not exit within grace period", zap.Int("pid", p.PID()))
		}

		p.log.Info("node process terminated", zap.Int("pid", p.PID()))
	})
}
