// Package commands implements CLI command handlers for ipystatectl.
package commands

import (
	"log/slog"
	"os"

	"github.com/nsstate/ipystate/pkg/observability"
	"github.com/nsstate/ipystate/pkg/version"
)

// initObservability builds an observability.Providers set for mode, reading
// OTLP exporter settings from the standard OTel environment variables the
// same way every ipystatectl subcommand does.
func initObservability(mode observability.AppMode, debug bool) (observability.Providers, error) {
	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version.Version
	cfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	cfg.OTLPInsecure = os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	cfg.Mode = mode
	cfg.LogJSON = true

	if debug {
		cfg.LogLevel = slog.LevelDebug
		cfg.DebugTrace = true
	}

	return observability.Init(cfg)
}
