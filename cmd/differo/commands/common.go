// Package commands implements CLI command handlers for differo.
package commands

import (
	"context"
	"log/slog"

	"github.com/differo/differo/pkg/observability"
	"github.com/differo/differo/pkg/version"
)

// ChartPoint is one (round, value) sample, the shape every front-end
// command's --output JSON uses so `differo render` can plot any of them
// without knowing which query produced the data.
type ChartPoint struct {
	Round int   `json:"round"`
	Value int64 `json:"value"`
}

// initObservability wires up structured logging (and a no-op tracer/meter,
// since none of these one-shot CLI commands run long enough to make an
// OTLP exporter worth the connection overhead) around one command's run.
func initObservability(verbose, quiet bool, logFormat string) (observability.Providers, error) {
	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version.Version
	cfg.LogJSON = logFormat == "json"

	switch {
	case quiet:
		cfg.LogLevel = slog.LevelError
	case verbose:
		cfg.LogLevel = slog.LevelDebug
	}

	return observability.Init(cfg)
}

func shutdownProviders(p observability.Providers) {
	if p.Shutdown == nil {
		return
	}

	if err := p.Shutdown(context.Background()); err != nil {
		slog.Error("observability shutdown failed", slog.Any("error", err))
	}
}
