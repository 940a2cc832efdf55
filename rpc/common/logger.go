package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/op/go-logging"
)

// --------------------------------------------------------------------------
// Logger configuration
// --------------------------------------------------------------------------

// logFormat aligns level and module so interleaved output from the
// background tasks stays readable.
var logFormat = logging.MustStringFormatter(
	`%{time:15:04:05.000} %{level:-5s} | %{module:-10s} | %{message}`,
)

// moduleNames lists every named logger used across the codebase.
var moduleNames = []string{
	"rpc",
	"engine",
	"auth",
	"batcher",
	"reaper",
	"sweeper",
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// parseLogLevel converts a string level to logging.Level
func parseLogLevel(level string) logging.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logging.DEBUG
	case "info":
		return logging.INFO
	case "warning", "warn":
		return logging.WARNING
	case "error":
		return logging.ERROR
	default:
		panic(fmt.Sprintf("invalid log level: %s. must be one of debug, info, warn, error", level))
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// InitLoggers configures the backend and level for all named loggers.
func InitLoggers(config ServerConfig) {
	backend := logging.NewLogBackend(os.Stdout, "", 0)
	formatted := logging.NewBackendFormatter(backend, logFormat)

	leveled := logging.AddModuleLevel(formatted)
	for _, name := range moduleNames {
		leveled.SetLevel(parseLogLevel(config.LogLevel), name)
	}
	logging.SetBackend(leveled)
}
