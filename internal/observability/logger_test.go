package observability

import (
	"testing"

	"github.com/danmuck/actionwire/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInitLoggerHonoursEnvironment(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})
	t.Setenv(logging.EnvLogLevel, "warn")
	t.Setenv(logging.EnvLogBypass, "true")

	InitLogger("actiond")
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Fatalf("unexpected global level: %v", zerolog.GlobalLevel())
	}
}
