package sound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
)

var ErrNoSound = errors.New("sound: nothing to play")

type Process interface {
	Wait() error
	Kill() error
}

// Launcher starts playback of path and returns the running process.
type Launcher func(ctx context.Context, path string) (Process, error)

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Wait() error { return p.cmd.Wait() }

func (p *execProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// ExecLauncher plays files with an external command such as paplay or afplay.
func ExecLauncher(command string, args ...string) Launcher {
	return func(_ context.Context, path string) (Process, error) {
		cmd := exec.Command(command, append(append([]string{}, args...), path)...)
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("sound: start %s: %w", command, err)
		}
		return &execProcess{cmd: cmd}, nil
	}
}

// Player keeps at most one sound playing. Every Play stops the current
// sound before starting the next.
type Player struct {
	mu       sync.Mutex
	launch   Launcher
	fallback string
	current  Process
	logger   *slog.Logger
}

func NewPlayer(launch Launcher, fallback string, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{launch: launch, fallback: fallback, logger: logger}
}

// Play starts path, or the fallback file when path is empty.
func (p *Player) Play(ctx context.Context, path string) error {
	if path == "" {
		path = p.fallback
	}
	if path == "" || p.launch == nil {
		return ErrNoSound
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	proc, err := p.launch(ctx, path)
	if err != nil {
		return err
	}
	p.current = proc
	p.logger.Debug("sound: playing", slog.String("path", path))
	go p.reap(proc)
	return nil
}

func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

func (p *Player) stopLocked() error {
	if p.current == nil {
		return nil
	}
	err := p.current.Kill()
	p.current = nil
	return err
}

func (p *Player) reap(proc Process) {
	_ = proc.Wait()
	p.mu.Lock()
	if p.current == proc {
		p.current = nil
	}
	p.mu.Unlock()
}
