// Package main provides a connector for tests that succeeds but writes a
// warning to stderr, using CRLF line endings.
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprint(os.Stdout, "{\"success\":true,\"message\":\"done\"}\r\n")
	fmt.Fprint(os.Stderr, "warning: deprecated\r\n")
}
