package observability

import (
	"os"

	"github.com/danmuck/edgeparse/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the runtime logger and tags it with app. level comes from a service
// config file and only applies when EDGEPARSE_LOG_LEVEL is unset.
func InitLogger(app, level string) zerolog.Logger {
	logging.ConfigureRuntime()
	logger := log.Logger.With().Str("app", app).Logger()
	if lvl, ok := logging.ParseLevel(level); ok && os.Getenv(logging.EnvLogLevel) == "" {
		zerolog.SetGlobalLevel(lvl)
		logger = logger.Level(lvl)
	}
	log.Logger = logger
	return logger
}
