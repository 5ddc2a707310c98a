package log

import (
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("log",
	fx.Provide(NewLogger),
)

// NewLogger builds the process-wide zap logger. Development gets the console
// encoder, everything else the production JSON config.
func NewLogger() (*zap.Logger, error) {
	if os.Getenv("ENVIRONMENT") == "development" {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}
