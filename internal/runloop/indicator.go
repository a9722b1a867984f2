package runloop

import "github.com/rs/zerolog"

type logIndicator struct {
	log zerolog.Logger
}

func (i logIndicator) Set(on bool) {
	i.log.Debug().Bool("active", on).Msg("indicator")
}

// LogIndicator stands in for the board activity output on hosts
// without one, tracing in-flight state at debug level.
func LogIndicator(log zerolog.Logger) Indicator {
	return logIndicator{log: log}
}
