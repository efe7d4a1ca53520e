package imgto3d

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/creack/pty"
)

// Spawner starts a child process for the given argv.
type Spawner interface {
	Spawn(ctx context.Context, argv []string) (Process, error)
}

// Process is a started child. Both streams must be drained before Wait is called.
type Process interface {
	Stdout() io.Reader
	Stderr() io.Reader
	// Wait blocks until the child exits. A non-zero exit is reported through
	// exitCode, not err.
	Wait() (exitCode int, err error)
}

func defaultSpawner(tty bool) Spawner {
	if tty {
		return PTYSpawner{}
	}

	return ExecSpawner{}
}

// ExecSpawner runs the child with separate stdout and stderr pipes.
type ExecSpawner struct{}

func (ExecSpawner) Spawn(ctx context.Context, argv []string) (Process, error) {
	cmd, err := command(ctx, argv)
	if err != nil {
		return nil, err
	}

	isolateGroup(cmd, true)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("cmd start: %w", err)
	}

	return &execProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader
	stderr io.Reader
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }
func (p *execProcess) Stderr() io.Reader { return p.stderr }

func (p *execProcess) Wait() (int, error) {
	return exitStatus(p.cmd.Wait())
}

// PTYSpawner runs the child attached to a pseudo-terminal. The terminal
// merges stdout and stderr, so Stderr is always empty.
type PTYSpawner struct{}

func (PTYSpawner) Spawn(ctx context.Context, argv []string) (Process, error) {
	cmd, err := command(ctx, argv)
	if err != nil {
		return nil, err
	}

	isolateGroup(cmd, false)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, fmt.Errorf("start pty: %w", err)
	}

	return &ptyProcess{cmd: cmd, ptmx: ptmx}, nil
}

type ptyProcess struct {
	cmd  *exec.Cmd
	ptmx *os.File
}

func (p *ptyProcess) Stdout() io.Reader { return eioReader{p.ptmx} }
func (p *ptyProcess) Stderr() io.Reader { return strings.NewReader("") }

func (p *ptyProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	_ = p.ptmx.Close()

	return exitStatus(err)
}

// eioReader reports io.EOF once the terminal's slave side is closed. Linux
// returns EIO from the master in that case.
type eioReader struct {
	r io.Reader
}

func (e eioReader) Read(b []byte) (int, error) {
	n, err := e.r.Read(b)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, io.EOF
	}

	return n, err
}

func command(ctx context.Context, argv []string) (*exec.Cmd, error) {
	if len(argv) == 0 {
		return nil, errors.New("command is empty")
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, fmt.Errorf("look up %s: %w", argv[0], err)
	}

	return exec.CommandContext(ctx, path, argv[1:]...), nil
}

func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	return 0, fmt.Errorf("cmd wait: %w", err)
}
