package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// setupLogging points the global logger at out. Timestamps show the time elapsed since
// startup.
func setupLogging(out io.Writer, verbose bool, noColor bool) zerolog.Logger {
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	startTime := time.Now()
	writer := zerolog.ConsoleWriter{
		Out:     out,
		NoColor: noColor,
	}
	writer.FormatTimestamp = func(i any) string {
		return formatElapsed(time.Since(startTime), noColor)
	}

	log.Logger = zerolog.New(writer).With().Timestamp().Caller().Logger()
	log.Debug().Msg("Running in verbose mode")
	return log.Logger
}

func formatElapsed(elapsed time.Duration, noColor bool) string {
	hours := int(elapsed.Hours())
	minutes := int(elapsed.Minutes()) % 60
	seconds := int(elapsed.Seconds()) % 60
	millis := int(elapsed.Milliseconds()) % 1000

	stamp := fmt.Sprintf("[+%02d:%02d:%02d.%03d]", hours, minutes, seconds, millis)
	if noColor {
		return stamp
	}
	return "\x1b[90m" + stamp + "\x1b[0m"
}
