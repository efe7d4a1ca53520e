package imgto3d

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Rescanner makes a newly written file visible to the host editor.
type Rescanner interface {
	Rescan(ctx context.Context, path string) error
}

// NeedsRescan reports whether outputPath lies under assetRoot.
func NeedsRescan(outputPath, assetRoot string) bool {
	if outputPath == "" || assetRoot == "" {
		return false
	}

	root, err := filepath.Abs(assetRoot)
	if err != nil {
		return false
	}

	path, err := filepath.Abs(outputPath)
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// CommandRescanner runs Argv with the output path appended.
type CommandRescanner struct {
	Argv []string
}

func (r CommandRescanner) Rescan(ctx context.Context, path string) error {
	if len(r.Argv) == 0 {
		return errors.New("rescan command is empty")
	}

	args := make([]string, 0, len(r.Argv))
	args = append(args, r.Argv[1:]...)
	args = append(args, path)

	cmd := exec.CommandContext(ctx, r.Argv[0], args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("rescan %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
		}

		return fmt.Errorf("rescan %s: %w", path, err)
	}

	return nil
}
