package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
	"github.com/ajitpratap0/mcp-client-go/pkg/logging"
	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
)

// maxMessageSize bounds a single newline-delimited message
const maxMessageSize = 10 * 1024 * 1024

// StdioConfig describes the subprocess a StdioTransport launches
type StdioConfig struct {
	Command string
	Args    []string
	// Env entries are layered over the parent environment
	Env map[string]string
	Dir string
	// GracePeriod is how long the process may take to exit after stdin closes
	GracePeriod time.Duration
	Logger      logging.Logger
}

// StdioTransport exchanges newline-delimited JSON-RPC messages with a server
// subprocess over its stdin and stdout. Stderr output is forwarded to the logger.
type StdioTransport struct {
	*events

	config StdioConfig
	logger logging.Logger

	// streams mode, when no subprocess is spawned
	reader io.Reader
	writer io.Writer

	mu     sync.Mutex // serializes writes
	out    *bufio.Writer
	stdin  io.Closer
	cmd    *exec.Cmd
	stderr *logging.LineWriter

	started   atomic.Bool
	connected atomic.Bool
	closing   atomic.Bool
	done      chan struct{}
}

// NewStdioTransport creates a transport that spawns config.Command on Connect
func NewStdioTransport(config StdioConfig) *StdioTransport {
	if config.Logger == nil {
		config.Logger = logging.Nop()
	}
	if config.GracePeriod <= 0 {
		config.GracePeriod = 2 * time.Second
	}
	return &StdioTransport{
		events: newEvents(),
		config: config,
		logger: config.Logger.WithFields(logging.Component("stdio")),
		done:   make(chan struct{}),
	}
}

// NewStdioTransportWithStreams creates a transport over already-open streams.
// Messages are read from r and written to w; no process is started.
func NewStdioTransportWithStreams(r io.Reader, w io.Writer) *StdioTransport {
	t := NewStdioTransport(StdioConfig{})
	t.reader = r
	t.writer = w
	return t
}

// Connect starts the subprocess, or the stream reader in streams mode
func (t *StdioTransport) Connect(ctx context.Context) error {
	if t.isClosed() || t.closing.Load() {
		return mcperrors.ConnectionClosed("stdio")
	}
	if err := ctx.Err(); err != nil {
		return mcperrors.ConnectionFailed("stdio", t.config.Command, err)
	}
	if !t.started.CompareAndSwap(false, true) {
		return nil
	}

	if t.reader != nil {
		t.mu.Lock()
		t.out = bufio.NewWriter(t.writer)
		if c, ok := t.writer.(io.Closer); ok {
			t.stdin = c
		}
		t.mu.Unlock()
		t.connected.Store(true)
		t.run(t.reader, nil)
		return nil
	}

	cmd := exec.Command(t.config.Command, t.config.Args...)
	cmd.Env = mergeEnv(os.Environ(), t.config.Env)
	cmd.Dir = t.config.Dir

	// stdout goes through our own pipe so Wait never races the reader
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		t.started.Store(false)
		return mcperrors.ConnectionFailed("stdio", t.config.Command, err)
	}
	cmd.Stdout = stdoutW

	stdin, err := cmd.StdinPipe()
	if err != nil {
		stdoutR.Close()
		stdoutW.Close()
		t.started.Store(false)
		return mcperrors.ConnectionFailed("stdio", t.config.Command, err)
	}

	t.stderr = logging.NewLineWriter(t.logger, logging.DebugLevel, logging.String("stream", "stderr"))
	cmd.Stderr = t.stderr

	if err := cmd.Start(); err != nil {
		stdoutR.Close()
		stdoutW.Close()
		t.started.Store(false)
		return mcperrors.ConnectionFailed("stdio", t.config.Command, err)
	}
	stdoutW.Close()

	t.logger.Debug("Server process started",
		logging.String("command", t.config.Command),
		logging.Int("pid", cmd.Process.Pid),
	)

	t.mu.Lock()
	t.cmd = cmd
	t.stdin = stdin
	t.out = bufio.NewWriter(stdin)
	t.mu.Unlock()

	t.connected.Store(true)
	t.run(stdoutR, cmd)
	return nil
}

// run reads until EOF and, for a subprocess, waits for it to exit. The close
// handlers fire once both are done.
func (t *StdioTransport) run(r io.Reader, cmd *exec.Cmd) {
	g := new(errgroup.Group)
	g.Go(func() error {
		return t.readLoop(r)
	})
	if cmd != nil {
		g.Go(func() error {
			err := cmd.Wait()
			if closer, ok := r.(io.Closer); ok && err != nil && t.closing.Load() {
				_ = closer.Close()
			}
			return err
		})
	}

	go func() {
		err := g.Wait()
		t.connected.Store(false)
		if t.stderr != nil {
			_ = t.stderr.Close()
		}
		close(t.done)

		if t.closing.Load() {
			t.emitClose(nil)
			return
		}
		t.logger.Warn("Server stream ended", logging.ErrorField(err))
		t.emitClose(mcperrors.ConnectionLost("stdio", t.config.Command, err))
	}()
}

func (t *StdioTransport) readLoop(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageSize)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		msgs, err := protocol.ParseMessages(line)
		if err != nil {
			t.logger.Warn("Discarding malformed message", logging.ErrorField(err))
			t.emitError(mcperrors.StdioTransportError("parse_message", err))
			continue
		}
		for _, msg := range msgs {
			deliver(t.events, t.logger, msg)
		}
	}

	if err := scanner.Err(); err != nil && !t.closing.Load() {
		return mcperrors.StdioTransportError("read_output", err)
	}
	return nil
}

// Send writes msg followed by a newline
func (t *StdioTransport) Send(ctx context.Context, msg *protocol.Message) error {
	if !t.connected.Load() {
		if t.isClosed() || t.closing.Load() {
			return mcperrors.ConnectionClosed("stdio")
		}
		return mcperrors.NotConnected("send", "disconnected")
	}
	if err := ctx.Err(); err != nil {
		return mcperrors.OperationCancelled("send", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return mcperrors.MessageSendError("stdio", msg.Method, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.out.Write(data); err != nil {
		return mcperrors.MessageSendError("stdio", msg.Method, err)
	}
	if err := t.out.WriteByte('\n'); err != nil {
		return mcperrors.MessageSendError("stdio", msg.Method, err)
	}
	if err := t.out.Flush(); err != nil {
		return mcperrors.MessageSendError("stdio", msg.Method, err)
	}
	return nil
}

// Close closes stdin, gives the process the grace period to exit and then
// kills it. Calling Close more than once is harmless.
func (t *StdioTransport) Close() error {
	if !t.closing.CompareAndSwap(false, true) {
		return nil
	}
	t.connected.Store(false)

	if !t.started.Load() {
		t.emitClose(nil)
		return nil
	}

	t.mu.Lock()
	if t.out != nil {
		_ = t.out.Flush()
	}
	if t.stdin != nil {
		_ = t.stdin.Close()
	}
	cmd := t.cmd
	t.mu.Unlock()

	if cmd == nil {
		// streams mode: unblock the reader if it can be closed
		if closer, ok := t.reader.(io.Closer); ok {
			_ = closer.Close()
			<-t.done
		}
		t.emitClose(nil)
		return nil
	}

	select {
	case <-t.done:
	case <-time.After(t.config.GracePeriod):
		t.logger.Warn("Server did not exit in time, killing it",
			logging.Duration("grace_period", t.config.GracePeriod))
		if err := cmd.Process.Kill(); err != nil {
			t.logger.Debug("Kill failed", logging.ErrorField(err))
		}
		<-t.done
	}
	t.emitClose(nil)
	return nil
}

// Connected reports whether messages can currently be sent
func (t *StdioTransport) Connected() bool {
	return t.connected.Load()
}

// mergeEnv layers overrides on top of base, in a stable order
func mergeEnv(base []string, overrides map[string]string) []string {
	env := slices.Clone(base)
	for _, key := range slices.Sorted(maps.Keys(overrides)) {
		env = append(env, fmt.Sprintf("%s=%s", key, overrides[key]))
	}
	return env
}
