package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/metalagman/imgto3d"
	"github.com/metalagman/imgto3d/internal/config"
	"github.com/metalagman/imgto3d/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var exitFn = os.Exit

type generateOptions struct {
	configPath  string
	python      string
	script      string
	input       string
	output      string
	apiKey      string
	assetRoot   string
	rescanCmd   []string
	timeout     time.Duration
	tty         bool
	debug       bool
	metricsFile string
	logLevel    string
	logFormat   string
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the connector script for one image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}

	addGenerateFlags(cmd, opts)

	return cmd
}

func addGenerateFlags(cmd *cobra.Command, opts *generateOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "imgto3d.yaml", "path to YAML config file")
	f.StringVar(&opts.python, "python", "", "interpreter that runs the script")
	f.StringVar(&opts.script, "script", "", "connector script path")
	f.StringVar(&opts.input, "input", "", "input image path")
	f.StringVar(&opts.output, "output", "", "output directory")
	f.StringVar(&opts.apiKey, "api-key", "", "API key (default $"+config.APIKeyEnv+")")
	f.StringVar(&opts.assetRoot, "asset-root", "", "rescan when the model is written under this directory")
	f.StringArrayVar(&opts.rescanCmd, "rescan-cmd", nil, "rescan command argv, repeatable; the model path is appended")
	f.DurationVar(&opts.timeout, "timeout", 0, "kill the connector after this long (0 waits forever)")
	f.BoolVar(&opts.tty, "tty", false, "run the connector in a pseudo-terminal")
	f.BoolVar(&opts.debug, "debug", false, "forward connector stdout/stderr to stderr")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	f.StringVar(&opts.logLevel, "log-level", "", "log level")
	f.StringVar(&opts.logFormat, "log-format", "", "log format: console or json")
}

// loadConfig layers changed flags over the file and environment configuration.
func loadConfig(cmd *cobra.Command, opts *generateOptions) (*config.Config, error) {
	cfg, err := config.NewLoader().WithConfigPath(opts.configPath).Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	setIf := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}

	setIf("python", func() { cfg.Python = opts.python })
	setIf("script", func() { cfg.Script = opts.script })
	setIf("output", func() { cfg.Output = opts.output })
	setIf("asset-root", func() { cfg.AssetRoot = opts.assetRoot })
	setIf("rescan-cmd", func() { cfg.RescanCmd = opts.rescanCmd })
	setIf("timeout", func() { cfg.Timeout = opts.timeout })
	setIf("tty", func() { cfg.TTY = opts.tty })
	setIf("metrics-file", func() { cfg.MetricsFile = opts.metricsFile })
	setIf("log-level", func() { cfg.Log.Level = opts.logLevel })
	setIf("log-format", func() { cfg.Log.Format = opts.logFormat })

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	injector := setupInjector(cfg, cmd.ErrOrStderr())

	code, err := generate(cmd, opts, injector)

	// os.Exit skips deferred calls, so flush services before exiting.
	if shutdownErr := injector.Shutdown(); shutdownErr != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "shutdown:", shutdownErr)
	}

	if err != nil {
		return err
	}

	if code != 0 {
		exitFn(code)
	}

	return nil
}

// generate runs one invocation and returns the process exit code.
func generate(cmd *cobra.Command, opts *generateOptions, injector *do.Injector) (int, error) {
	cfg := do.MustInvoke[*config.Config](injector)

	log, err := do.Invoke[zerolog.Logger](injector)
	if err != nil {
		return 0, fmt.Errorf("create logger: %w", err)
	}

	invoker, err := do.Invoke[*imgto3d.Invoker](injector)
	if err != nil {
		return 0, fmt.Errorf("create invoker: %w", err)
	}

	collector := do.MustInvoke[*metrics.Collector](injector)

	apiKey := lo.Ternary(cmd.Flags().Changed("api-key"), opts.apiKey, os.Getenv(config.APIKeyEnv))
	req := invoker.NewRequest(opts.input, cfg.Output, apiKey)

	invokeOpts := []imgto3d.InvokeOption{
		imgto3d.WithLogger(log),
		imgto3d.WithTimeout(cfg.Timeout),
	}
	if opts.debug {
		invokeOpts = append(invokeOpts,
			imgto3d.WithStdout(cmd.ErrOrStderr()),
			imgto3d.WithStderr(cmd.ErrOrStderr()),
		)
	}

	started := time.Now()

	res, err := invoker.Invoke(cmd.Context(), req, invokeOpts...)
	if err != nil {
		collector.RecordInvocation(imgto3d.ErrorKind(err), time.Since(started))
		fmt.Fprintln(cmd.ErrOrStderr(), imgto3d.UserMessage(err))

		return 1, nil
	}

	collector.RecordInvocation(res.Outcome(), time.Since(started))

	return report(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), injector, res), nil
}

// report prints the status line and triggers an asset rescan when needed.
func report(ctx context.Context, stdout, stderr io.Writer, injector *do.Injector, res imgto3d.Result) int {
	success, ok := res.(imgto3d.Success)
	if !ok {
		fmt.Fprintln(stderr, res.Status())

		return 1
	}

	fmt.Fprintln(stdout, success.Status())

	if success.OutputPath != "" {
		fmt.Fprintln(stdout, success.OutputPath)
	}

	cfg := do.MustInvoke[*config.Config](injector)
	if !imgto3d.NeedsRescan(success.OutputPath, cfg.AssetRoot) {
		return 0
	}

	log := do.MustInvoke[zerolog.Logger](injector)
	collector := do.MustInvoke[*metrics.Collector](injector)

	rescanner, err := do.Invoke[imgto3d.Rescanner](injector)
	if err != nil {
		log.Warn().Str("path", success.OutputPath).Msg("model is under the asset root but no rescan command is configured")

		return 0
	}

	err = rescanner.Rescan(ctx, success.OutputPath)
	collector.RecordRescan(err)

	if err != nil {
		log.Error().Err(err).Msg("asset rescan failed")

		return 0
	}

	log.Info().Str("path", success.OutputPath).Msg("asset rescan triggered")

	return 0
}
