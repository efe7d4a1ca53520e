package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/metalagman/imgto3d"
	"github.com/metalagman/imgto3d/internal/logging"
	"github.com/metalagman/imgto3d/stability"
	"github.com/spf13/cobra"
)

const (
	connectUsage   = "Invalid arguments. Required: input_path output_path api_key"
	connectSuccess = "3D model generated successfully"
)

type connectOptions struct {
	baseURL string
	logFile string
}

// newConnectCmd is a drop-in for the Python connector: it always prints one
// envelope on stdout and never writes to stderr, since any stderr output
// fails the invocation.
func newConnectCmd() *cobra.Command {
	opts := &connectOptions{}
	cmd := &cobra.Command{
		Use:   "connect <input_path> <output_path> <api_key>",
		Short: "Call the image-to-3D API directly and print the response envelope",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if opts.logFile != "" {
				f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
				if err != nil {
					return emit(cmd.OutOrStdout(), imgto3d.Response{Error: fmt.Sprintf("open log file: %v", err)})
				}
				defer f.Close()

				log, err := logging.New(f, "info", logging.FormatJSON)
				if err != nil {
					return emit(cmd.OutOrStdout(), imgto3d.Response{Error: err.Error()})
				}

				ctx = log.WithContext(ctx)
			}

			client := &stability.Client{HTTPClient: http.DefaultClient, BaseURL: opts.baseURL}

			return runConnect(ctx, cmd.OutOrStdout(), client, args)
		},
	}

	cmd.Flags().StringVar(&opts.baseURL, "base-url", stability.DefaultBaseURL, "API base URL")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "append JSON logs to this file")

	return cmd
}

func runConnect(ctx context.Context, w io.Writer, client *stability.Client, args []string) error {
	if len(args) != 3 {
		return emit(w, imgto3d.Response{Error: connectUsage})
	}

	inputPath, outputDir := args[0], args[1]
	client.APIKey = args[2]

	path, err := client.Generate(ctx, inputPath, outputDir)
	if err == nil {
		return emit(w, imgto3d.Response{Success: true, Message: connectSuccess, OutputPath: path})
	}

	resp := imgto3d.Response{Error: err.Error()}

	var apiErr *stability.APIError

	switch {
	case errors.Is(err, stability.ErrInputNotFound):
		resp.Error = "Input file not found: " + inputPath
	case errors.Is(err, stability.ErrOutputDirNotFound):
		resp.Error = "Output directory not found: " + outputDir
	case errors.As(err, &apiErr):
		resp.Details = apiErr.Body
	}

	return emit(w, resp)
}

func emit(w io.Writer, resp imgto3d.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}
