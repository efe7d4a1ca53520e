// Package imgto3d runs an external image-to-3D connector script and turns its
// output into a Result.
package imgto3d

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const maxLineSize = 8 << 20

// Generator runs one generation attempt.
type Generator interface {
	Invoke(ctx context.Context, req Request, opts ...InvokeOption) (Result, error)
}

// NewInvoker constructs an invoker for the given interpreter and script.
func NewInvoker(cfg InvokerConfig) (*Invoker, error) {
	if strings.TrimSpace(cfg.Interpreter) == "" {
		return nil, fmt.Errorf("invoker requires interpreter")
	}

	return &Invoker{interpreter: cfg.Interpreter, script: cfg.Script, useTTY: cfg.UseTTY}, nil
}

// Invoker holds only immutable configuration, so identical requests against a
// deterministic connector yield identical results.
type Invoker struct {
	interpreter string
	script      string
	useTTY      bool
}

// NewRequest freezes the given fields together with the configured interpreter and script.
func (i *Invoker) NewRequest(inputImage, outputDir, credential string) Request {
	return Request{
		Interpreter: i.interpreter,
		Script:      i.script,
		InputImage:  inputImage,
		OutputDir:   outputDir,
		Credential:  credential,
	}
}

// Invoke validates req, runs the connector and blocks until it exits.
//
// A returned error means no Result exists: the request was invalid
// (ErrValidation), the process could not start (ErrLaunch), or it was killed
// on timeout (ErrTimeout). Everything the child reports is a Result.
func (i *Invoker) Invoke(ctx context.Context, req Request, opts ...InvokeOption) (Result, error) {
	opts = append([]InvokeOption{WithTTY(i.useTTY)}, opts...)

	runOpts, err := resolveInvokeOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("resolve options: %w", err)
	}

	log := runOpts.logger.With().
		Str("run_id", uuid.NewString()).
		Object("request", req).
		Logger()

	if err := req.Validate(); err != nil {
		log.Warn().Err(err).Msg("request rejected")

		return nil, err
	}

	if runOpts.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, runOpts.timeout)
		defer cancel()
	}

	log.Info().Str("cmd", req.CommandLine()).Bool("tty", runOpts.tty).Msg("starting connector")

	started := time.Now()

	proc, err := runOpts.spawner.Spawn(ctx, append([]string{req.Interpreter}, req.Args()...))
	if err != nil {
		log.Error().Str("error", req.Scrub(err.Error())).Msg("connector failed to start")

		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}

	stdout, stderr, exitCode, err := collect(proc, runOpts.stdout, runOpts.stderr)

	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Error().Err(ctxErr).Dur("elapsed", time.Since(started)).Msg("connector interrupted")

		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, runOpts.timeout)
		}

		return nil, fmt.Errorf("wait connector: %w", ctxErr)
	}

	if err != nil {
		log.Error().Str("error", req.Scrub(err.Error())).Msg("connector output lost")

		return nil, fmt.Errorf("collect output: %w", err)
	}

	res := deriveResult(stdout, stderr, exitCode)

	event := log.Info()
	if res.Outcome() != OutcomeSuccess {
		event = log.Error()
	}

	event.Str("outcome", res.Outcome()).
		Int("exit_code", exitCode).
		Dur("elapsed", time.Since(started)).
		Str("status", req.Scrub(res.Status())).
		Msg("connector finished")

	return res, nil
}

// collect drains both streams concurrently and only then waits for the exit code.
func collect(proc Process, stdoutSink, stderrSink io.Writer) (string, string, int, error) {
	var (
		stdout strings.Builder
		stderr strings.Builder
		mu     sync.Mutex
		g      errgroup.Group
	)

	g.Go(func() error {
		return drainLines(proc.Stdout(), &stdout, lockedWriter{w: stdoutSink, mu: &mu})
	})
	g.Go(func() error {
		return drainLines(proc.Stderr(), &stderr, lockedWriter{w: stderrSink, mu: &mu})
	})

	drainErr := g.Wait()

	exitCode, waitErr := proc.Wait()
	if err := errors.Join(drainErr, waitErr); err != nil {
		return stdout.String(), stderr.String(), exitCode, err
	}

	return stdout.String(), stderr.String(), exitCode, nil
}

// drainLines appends every line of r to buf terminated by a single "\n",
// whatever terminator the producer used.
func drainLines(r io.Reader, buf *strings.Builder, sink io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	sc.Split(scanLines)

	for sc.Scan() {
		line := sc.Text() + "\n"
		buf.WriteString(line)
		_, _ = io.WriteString(sink, line)
	}

	if err := sc.Err(); err != nil {
		// keep the pipe empty so the child cannot block on a full buffer
		_, _ = io.Copy(io.Discard, r)

		return fmt.Errorf("read stream: %w", err)
	}

	return nil
}

// scanLines is bufio.ScanLines extended to treat "\r\n", "\n" and a lone "\r"
// as line terminators.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}

		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}

			return i + 1, data[:i], nil
		}

		if atEOF {
			return i + 1, data[:i], nil
		}

		return 0, nil, nil
	}

	if atEOF {
		return len(data), data, nil
	}

	return 0, nil, nil
}

type lockedWriter struct {
	w  io.Writer
	mu *sync.Mutex
}

func (l lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.w.Write(p)
}
