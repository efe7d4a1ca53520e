// Package main provides a connector for tests that writes a model file and
// reports it in the response envelope.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type response struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
	OutputPath string `json:"outputPath,omitempty"`
}

func main() {
	if len(os.Args) != 5 {
		emit(response{Error: fmt.Sprintf("expected 4 args, got %d", len(os.Args)-1)})
		return
	}

	input, outDir, key := os.Args[2], os.Args[3], os.Args[4]
	if key == "bad-key" {
		emit(response{Error: "API Error: 401"})
		return
	}

	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	out := filepath.Join(outDir, stem+"_3d.glb")
	if err := os.WriteFile(out, []byte("glTF"), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	emit(response{Success: true, Message: "generated with key " + key, OutputPath: out})
}

func emit(r response) {
	encoded, err := json.Marshal(r)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(string(encoded))
}
