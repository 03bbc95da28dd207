package observability

import (
	"github.com/danmuck/actionwire/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger installs the runtime logger, honouring the ACTIONWIRE_LOG_*
// environment, and tags every line with app.
func InitLogger(app string) zerolog.Logger {
	logging.Apply(logging.Resolve(logging.ProfileRuntime))
	logger := log.Logger.With().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
