package logger

import (
	"os"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

// Init must be called once before any other function in this package.
func Init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func Debug(event string, fields map[string]interface{}) {
	log.Debug().Fields(fields).Msg(event)
}

func Info(event string, fields map[string]interface{}) {
	log.Info().Fields(fields).Msg(event)
}

func Warn(event string, fields map[string]interface{}) {
	log.Warn().Fields(fields).Msg(event)
}

func Error(event string, err error, fields map[string]interface{}) {
	log.Error().Err(err).Fields(fields).Msg(event)
}
