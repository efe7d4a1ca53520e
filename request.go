package imgto3d

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Request is the frozen set of parameters for one generation attempt.
// Build a fresh value per attempt; it is never persisted.
type Request struct {
	Interpreter string
	Script      string
	InputImage  string
	OutputDir   string
	Credential  string
}

// Validate checks the preconditions that must hold before a process is spawned.
// The first violation is returned wrapped in ErrValidation.
func (r Request) Validate() error {
	if r.Credential == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrMissingCredential)
	}

	if r.InputImage == "" || !isFile(r.InputImage) {
		return fmt.Errorf("%w: %w: %q", ErrValidation, ErrInputImageNotFound, r.InputImage)
	}

	if r.OutputDir == "" || !isDir(r.OutputDir) {
		return fmt.Errorf("%w: %w: %q", ErrValidation, ErrOutputDirNotFound, r.OutputDir)
	}

	if !isFile(r.Script) {
		return fmt.Errorf("%w: %w: %q", ErrValidation, ErrScriptNotFound, r.Script)
	}

	return nil
}

// Args returns the positional arguments passed to the interpreter.
func (r Request) Args() []string {
	return []string{r.Script, r.InputImage, r.OutputDir, r.Credential}
}

// CommandLine renders the invocation with every argument quoted and the
// credential redacted. It is meant for logs only.
func (r Request) CommandLine() string {
	args := r.Args()
	args[len(args)-1] = RedactedCredential

	quoted := lo.Map(append([]string{r.Interpreter}, args...), func(arg string, _ int) string {
		return strconv.Quote(arg)
	})

	return strings.Join(quoted, " ")
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (r Request) MarshalZerologObject(e *zerolog.Event) {
	e.Str("interpreter", r.Interpreter).
		Str("script", r.Script).
		Str("input_image", r.InputImage).
		Str("output_dir", r.OutputDir).
		Bool("credential_set", r.Credential != "")
}

// Scrub replaces every occurrence of the request credential in text.
func (r Request) Scrub(text string) string {
	if r.Credential == "" {
		return text
	}

	return strings.ReplaceAll(text, r.Credential, RedactedCredential)
}

func isFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}
