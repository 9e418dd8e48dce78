package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// stdioTransport talks to a subprocess over newline-delimited JSON-RPC on its
// stdin/stdout. Stderr is drained into the logger so a chatty server cannot
// block on a full pipe.
type stdioTransport struct {
	server string
	cfg    ServerConfig
	logger *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	msgs    chan JSONRPCMessage
	done    chan struct{}
	started bool
	closed  bool
}

var _ Transport = (*stdioTransport)(nil)

func newStdioTransport(server string, cfg ServerConfig) *stdioTransport {
	return &stdioTransport{
		server: server,
		cfg:    cfg,
		logger: slog.Default().With(slog.String("server", server)),
	}
}

func (t *stdioTransport) Connect(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if t.started {
		return nil
	}

	cmd := exec.Command(t.cfg.Command, t.cfg.Args...)
	cmd.Env = os.Environ()
	for k, v := range t.cfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %q: %w", t.cfg.Command, err)
	}

	t.cmd = cmd
	t.stdin = stdin
	t.msgs = make(chan JSONRPCMessage, 8)
	t.done = make(chan struct{})
	t.started = true

	go t.readLoop(stdout)
	go t.drainStderr(stderr)
	return nil
}

func (t *stdioTransport) Send(ctx context.Context, msg JSONRPCMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	// Newline framing; one message per line.
	data = append(data, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started || t.closed {
		return ErrNotConnected
	}
	if _, err := t.stdin.Write(data); err != nil {
		return fmt.Errorf("write to %q: %w", t.cfg.Command, err)
	}
	return nil
}

func (t *stdioTransport) Messages() <-chan JSONRPCMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.msgs
}

func (t *stdioTransport) Close() error {
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
		t.logger.Warn("failed to close stdin", slog.String("err", err.Error()))
	}
	if t.cmd.Process != nil {
		if err := t.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			t.logger.Warn("failed to kill server process", slog.String("err", err.Error()))
		}
	}
	_ = t.cmd.Wait()
	return nil
}

// readLoop reads newline-delimited JSON-RPC messages until the pipe closes.
// Uses bufio.Reader instead of bufio.Scanner to avoid max token size errors.
func (t *stdioTransport) readLoop(stdout io.Reader) {
	defer close(t.msgs)

	reader := bufio.NewReader(stdout)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.logger.Error("failed to read message", slog.String("err", err.Error()))
			}
			return
		}
		line = strings.TrimSuffix(line, "\n")
		if line == "" {
			continue
		}

		var msg JSONRPCMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			t.logger.Error("failed to unmarshal message", slog.String("err", err.Error()))
			continue
		}
		select {
		case t.msgs <- msg:
		case <-t.done:
			return
		}
	}
}

func (t *stdioTransport) drainStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		t.logger.Debug("server stderr", slog.String("line", scanner.Text()))
	}
}
