// Package harvest defines the integrity core of a farm-to-consumer
// provenance system.
//
// The repository is centered around two independent components: the envelope
// codec that produces and verifies tamper-evident signed records exchanged
// between the actors of a supply chain, and the transaction lifecycle
// controller that supervises the submission of a record to an external
// settlement layer. The surrounding packages provide the serialization
// kernel, the cryptographic primitives, the storage of issued envelopes and
// the command-line frontend.
package harvest

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// EnvLogLevel is the name of the environment variable to change the logging
// level.
const EnvLogLevel = "HARVEST_LOG_LEVEL"

const defaultLevel = zerolog.InfoLevel

func init() {
	switch os.Getenv(EnvLogLevel) {
	case "error":
		Logger = Logger.Level(zerolog.ErrorLevel)
	case "warn":
		Logger = Logger.Level(zerolog.WarnLevel)
	case "debug":
		Logger = Logger.Level(zerolog.DebugLevel)
	case "trace":
		Logger = Logger.Level(zerolog.TraceLevel)
	case "":
		Logger = Logger.Level(defaultLevel)
	default:
		Logger = Logger.Level(zerolog.InfoLevel)
	}
}

var logout = zerolog.ConsoleWriter{
	Out:        os.Stderr,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance. The level defaults to info
// and can be changed through the environment variable.
var Logger = zerolog.New(logout).
	With().Timestamp().Logger().
	With().Caller().Logger().
	Level(defaultLevel)

// PromCollectors exposes the Prometheus collectors registered by the packages
// of this module so that an application can feed them into its own registry.
var PromCollectors []prometheus.Collector
