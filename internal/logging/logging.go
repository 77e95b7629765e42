package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Level string
	File  string // strftime pattern, e.g. ./data/logs/dashboard.%Y%m%d.log
	Dev   bool
}

func levelFromString(l string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(l)
	if err != nil || l == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// New builds the process logger and installs it as the zerolog global.
// The returned closer releases the rotating file, if any.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	var out io.Writer = os.Stdout
	if cfg.Dev {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		rl, err := rotatelogs.New(
			cfg.File,
			rotatelogs.WithMaxAge(7*24*time.Hour),
			rotatelogs.WithRotationTime(24*time.Hour),
		)
		if err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("[logging New] rotating log file: %w", err)
		}
		out = zerolog.MultiLevelWriter(out, rl)
		closer = rl
	}

	logger := zerolog.New(out).Level(levelFromString(cfg.Level)).With().Timestamp().Logger()
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
