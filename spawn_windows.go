//go:build windows

package imgto3d

import "os/exec"

// isolateGroup keeps the default cancellation, which kills only the direct child.
func isolateGroup(_ *exec.Cmd, _ bool) {}
