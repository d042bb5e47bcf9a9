package tray

import (
	"os"

	"github.com/rs/zerolog"
)

// logger receives degradation notices (icon conversion failures, shell call
// failures, retry exhaustion). Nothing in this package treats such failures
// as fatal.
var logger = zerolog.New(os.Stderr).With().Timestamp().Str("component", "tray").Logger()

// SetLogger replaces the package logger. Hosts that route logs through
// their own zerolog setup should call this before creating a [Tray].
func SetLogger(l zerolog.Logger) {
	logger = l
}
