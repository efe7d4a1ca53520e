package imgto3d

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

var optionsValidator = validator.New()

// InvokeOptions defines the configuration for a single invocation.
type InvokeOptions struct {
	stdout  io.Writer
	stderr  io.Writer
	tty     bool
	timeout time.Duration
	spawner Spawner
	logger  zerolog.Logger
}

// InvokeOption configures runtime behavior for invoking the connector.
type InvokeOption func(*InvokeOptions)

// WithStdout mirrors every captured stdout line to w.
func WithStdout(w io.Writer) InvokeOption {
	return func(o *InvokeOptions) { o.stdout = w }
}

// WithStderr mirrors every captured stderr line to w.
func WithStderr(w io.Writer) InvokeOption {
	return func(o *InvokeOptions) { o.stderr = w }
}

// WithTTY enables or disables pseudo-terminal execution.
// Under a TTY both streams arrive merged on stdout.
func WithTTY(enabled bool) InvokeOption {
	return func(o *InvokeOptions) { o.tty = enabled }
}

// WithTimeout kills the child after d. Zero means no timeout.
func WithTimeout(d time.Duration) InvokeOption {
	return func(o *InvokeOptions) { o.timeout = d }
}

// WithSpawner replaces the process spawner.
func WithSpawner(s Spawner) InvokeOption {
	return func(o *InvokeOptions) { o.spawner = s }
}

// WithLogger sets the logger used for invocation events.
func WithLogger(l zerolog.Logger) InvokeOption {
	return func(o *InvokeOptions) { o.logger = l }
}

// Validate reports every invalid field at once.
func (o InvokeOptions) Validate() error {
	var errs []error

	if o.stdout == nil {
		errs = append(errs, errors.New("stdout: writer is required"))
	}

	if o.stderr == nil {
		errs = append(errs, errors.New("stderr: writer is required"))
	}

	if err := optionsValidator.Var(o.timeout, "gte=0"); err != nil {
		errs = append(errs, fmt.Errorf("timeout: %w", err))
	}

	return errors.Join(errs...)
}

func resolveInvokeOptions(opts []InvokeOption) (InvokeOptions, error) {
	out := defaultInvokeOptions()
	for _, opt := range opts {
		opt(&out)
	}

	if err := out.Validate(); err != nil {
		return InvokeOptions{}, err
	}

	if out.spawner == nil {
		out.spawner = defaultSpawner(out.tty)
	}

	return out, nil
}

func defaultInvokeOptions() InvokeOptions {
	return InvokeOptions{
		stdout:  io.Discard,
		stderr:  io.Discard,
		tty:     false,
		timeout: 0,
		logger:  zerolog.Nop(),
	}
}
