// Package stdio runs the evaluation server as a child process and speaks
// netstring-framed messages over its stdin/stdout. The child's stderr is
// passed through to ours so server diagnostics stay visible.
package stdio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/pnwamk/cryptol/pkg/codec"
	"github.com/pnwamk/cryptol/pkg/transport"
)

type Transport struct {
	opts *transport.ClientOptions

	command string
	argv    []string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	frames chan readResult
	done   chan struct{}

	mu      sync.Mutex
	started bool
	closed  bool
}

type readResult struct {
	frame []byte
	err   error
}

var _ transport.ClientTransport = (*Transport)(nil)

// New prepares a transport for the given launch command, e.g.
// "cabal new-exec --verbose=0 cryptol-remote-api". The command is split
// shell-style (quotes respected, no expansion).
func New(command string, options ...transport.ClientOption) (*Transport, error) {
	opts := transport.DefaultClientOptions()
	for _, o := range options {
		o(opts)
	}

	argv, err := splitCommand(command)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("stdio: empty launch command")
	}

	return &Transport{
		opts:    opts,
		command: command,
		argv:    argv,
	}, nil
}

func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return fmt.Errorf("stdio: already started: %s", t.command)
	}
	if t.closed {
		return fmt.Errorf("stdio: transport closed")
	}

	cmd := exec.CommandContext(ctx, t.argv[0], t.argv[1:]...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdio: stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdio: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("stdio: launch %q: %w", t.command, err)
	}

	t.cmd = cmd
	t.stdin = stdin
	t.stdout = bufio.NewReaderSize(stdout, t.opts.ReadBufferSize)
	t.frames = make(chan readResult)
	t.done = make(chan struct{})
	t.started = true

	go readLoop(t.stdout, t.frames, t.done)

	return nil
}

func (t *Transport) Send(ctx context.Context, frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started || t.closed {
		return fmt.Errorf("stdio: not running")
	}

	return codec.WriteNetstring(t.stdin, frame)
}

// Recv waits for the next frame from the reader loop. Cancellation abandons
// only the wait: the loop keeps the frame and the next Recv picks it up, so
// responses stay aligned with requests after a timeout.
func (t *Transport) Recv(ctx context.Context) ([]byte, error) {
	t.mu.Lock()
	if !t.started || t.closed {
		t.mu.Unlock()
		return nil, fmt.Errorf("stdio: not running")
	}
	frames := t.frames
	t.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r, ok := <-frames:
		if !ok {
			return nil, fmt.Errorf("stdio: server closed the stream")
		}
		return r.frame, r.err
	}
}

// readLoop is the only reader of the child's stdout, running from Start
// until the stream ends or the transport closes. Exactly one reader means
// an abandoned Recv can never race a later one for the same frame.
func readLoop(stdout *bufio.Reader, frames chan<- readResult, done <-chan struct{}) {
	defer close(frames)

	for {
		frame, err := codec.ReadNetstring(stdout)

		select {
		case frames <- readResult{frame: frame, err: err}:
		case <-done:
			return
		}

		if err != nil {
			return
		}
	}
}

// Close shuts down stdin, kills the child if it does not exit, and reaps it.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	if !t.started {
		return nil
	}

	close(t.done)

	if err := t.stdin.Close(); err != nil {
		_ = t.cmd.Process.Kill()
		_ = t.cmd.Wait()
		return fmt.Errorf("stdio: close stdin: %w", err)
	}

	_ = t.cmd.Process.Kill()
	_ = t.cmd.Wait()

	return nil
}

// splitCommand splits a launch command into argv, honoring single and double
// quotes. No variable expansion or globbing.
func splitCommand(command string) ([]string, error) {
	var (
		argv    []string
		current strings.Builder
		inWord  bool
		quote   rune
	)

	for _, r := range command {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				argv = append(argv, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("stdio: unterminated quote in command %q", command)
	}
	if inWord {
		argv = append(argv, current.String())
	}

	return argv, nil
}
