package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/notnil/chess"
	"github.com/notnil/chess/uci"
	"github.com/sirupsen/logrus"
)

const (
	HandshakeTimeout = 10 * time.Second
	QuitTimeout      = 2 * time.Second
	lineQueueSize    = 64
)

var (
	ErrNoMove = errors.New("engine has no move")
	ErrClosed = errors.New("engine closed")
)

// Searcher runs searches on a chess engine. Search blocks; Stop may be
// called from another goroutine to make a running search return early.
type Searcher interface {
	Search(ctx context.Context, pos *chess.Position, cmd uci.CmdGo) (best, ponder *chess.Move, err error)
	Stop() error
	Quit() error
}

// Process is a UCI engine running as a child process. Commands are encoded
// by the uci package; responses are read line by line on a goroutine.
type Process struct {
	cmd   *exec.Cmd
	in    io.WriteCloser
	lines chan string
	done  chan struct{}

	writeMu   sync.Mutex
	searching int32

	log logrus.FieldLogger
}

var _ Searcher = (*Process)(nil)

// Start launches the engine binary. The process is not usable before
// Handshake returns.
func Start(path string, log logrus.FieldLogger) (*Process, error) {
	cmd := exec.Command(path)
	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdin: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine %s: %w", path, err)
	}

	p := &Process{
		cmd:   cmd,
		in:    in,
		lines: make(chan string, lineQueueSize),
		done:  make(chan struct{}),
		log:   log.WithField("engine", path),
	}
	go p.read(out)
	return p, nil
}

func (p *Process) read(out io.Reader) {
	defer close(p.done)

	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "info") {
			continue
		}
		p.log.Debug("< ", line)
		p.lines <- line
	}
	if err := scanner.Err(); err != nil {
		p.log.WithError(err).Warn("engine output closed")
	}
}

func (p *Process) send(cmds ...uci.Cmd) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	for _, cmd := range cmds {
		s := cmd.String()
		p.log.Debug("> ", s)
		if _, err := io.WriteString(p.in, s+"\n"); err != nil {
			return fmt.Errorf("write %q: %w", s, err)
		}
	}
	return nil
}

// waitFor discards lines until one starts with prefix.
func (p *Process) waitFor(ctx context.Context, prefix string) (string, error) {
	for {
		select {
		case line := <-p.lines:
			if strings.HasPrefix(line, prefix) {
				return line, nil
			}
		case <-p.done:
			return "", ErrClosed
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Handshake switches the engine to UCI mode and waits until it is ready.
func (p *Process) Handshake(ctx context.Context) error {
	if err := p.send(uci.CmdUCI); err != nil {
		return err
	}
	if _, err := p.waitFor(ctx, "uciok"); err != nil {
		return fmt.Errorf("waiting for uciok: %w", err)
	}
	return p.ready(ctx)
}

func (p *Process) ready(ctx context.Context) error {
	if err := p.send(uci.CmdIsReady); err != nil {
		return err
	}
	if _, err := p.waitFor(ctx, "readyok"); err != nil {
		return fmt.Errorf("waiting for readyok: %w", err)
	}
	return nil
}

// Configure sends the options and waits until the engine has applied them.
func (p *Process) Configure(ctx context.Context, opts []uci.CmdSetOption) error {
	for _, opt := range opts {
		if err := p.send(opt); err != nil {
			return err
		}
	}
	return p.ready(ctx)
}

func (p *Process) NewGame(ctx context.Context) error {
	if err := p.send(uci.CmdUCINewGame); err != nil {
		return err
	}
	return p.ready(ctx)
}

func (p *Process) Search(ctx context.Context, pos *chess.Position, cmd uci.CmdGo) (*chess.Move, *chess.Move, error) {
	atomic.StoreInt32(&p.searching, 1)
	defer atomic.StoreInt32(&p.searching, 0)

	if err := p.send(uci.CmdPosition{Position: pos}, cmd); err != nil {
		return nil, nil, err
	}
	line, err := p.waitFor(ctx, "bestmove")
	if err != nil {
		return nil, nil, fmt.Errorf("waiting for bestmove: %w", err)
	}
	return ParseBestMove(pos, line)
}

// Stop asks a running search to return its best move now.
func (p *Process) Stop() error {
	if atomic.LoadInt32(&p.searching) == 0 {
		return nil
	}
	return p.send(uci.CmdStop)
}

// Quit asks the engine to exit and kills it if it does not.
func (p *Process) Quit() error {
	if err := p.send(uci.CmdQuit); err != nil {
		p.log.WithError(err).Warn("failed to send quit")
	}
	p.in.Close()

	exited := make(chan error, 1)
	go func() { exited <- p.cmd.Wait() }()

	select {
	case err := <-exited:
		return err
	case <-time.After(QuitTimeout):
		p.log.Warn("engine did not quit, killing it")
		if err := p.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("kill engine: %w", err)
		}
		return <-exited
	}
}

// ParseBestMove decodes "bestmove <move> [ponder <move>]".
func ParseBestMove(pos *chess.Position, line string) (best, ponder *chess.Move, err error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "bestmove" {
		return nil, nil, fmt.Errorf("unexpected engine reply %q", line)
	}
	if fields[1] == "(none)" || fields[1] == "0000" {
		return nil, nil, ErrNoMove
	}

	best, ok := LegalMove(pos, fields[1])
	if !ok {
		return nil, nil, fmt.Errorf("engine move %s is not legal in %s", fields[1], pos)
	}

	if len(fields) >= 4 && fields[2] == "ponder" {
		// the predicted reply is a hint; drop it if it does not parse
		ponder, _ = LegalMove(pos.Update(best), fields[3])
	}
	return best, ponder, nil
}
