package main

import (
	"fmt"
	"io"

	"github.com/metalagman/imgto3d"
	"github.com/metalagman/imgto3d/internal/config"
	"github.com/metalagman/imgto3d/internal/logging"
	"github.com/metalagman/imgto3d/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/samber/do"
)

const metricsNamespace = "imgto3d"

func setupInjector(cfg *config.Config, logOut io.Writer) *do.Injector {
	injector := do.New()

	do.ProvideValue[*config.Config](injector, cfg)
	do.Provide[zerolog.Logger](injector, func(i *do.Injector) (zerolog.Logger, error) {
		c := do.MustInvoke[*config.Config](i)

		return logging.New(logOut, c.Log.Level, c.Log.Format)
	})
	do.Provide[*imgto3d.Invoker](injector, func(i *do.Injector) (*imgto3d.Invoker, error) {
		c := do.MustInvoke[*config.Config](i)

		return imgto3d.NewInvoker(imgto3d.InvokerConfig{
			Interpreter: c.Python,
			Script:      c.Script,
			UseTTY:      c.TTY,
		})
	})
	do.Provide[*metrics.Collector](injector, func(i *do.Injector) (*metrics.Collector, error) {
		c := do.MustInvoke[*config.Config](i)

		collector := metrics.NewCollector(metricsNamespace)
		collector.SetTextfile(c.MetricsFile)

		return collector, nil
	})
	do.Provide[imgto3d.Rescanner](injector, func(i *do.Injector) (imgto3d.Rescanner, error) {
		c := do.MustInvoke[*config.Config](i)
		if len(c.RescanCmd) == 0 {
			return nil, fmt.Errorf("no rescan command configured")
		}

		return imgto3d.CommandRescanner{Argv: c.RescanCmd}, nil
	})

	return injector
}
