// Package main provides a connector for tests that fails with diagnostics.
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println(`{"success":true,"message":"ignored"}`)
	fmt.Fprintln(os.Stderr, "Traceback (most recent call last):")
	fmt.Fprintln(os.Stderr, "boom")
	os.Exit(1)
}
