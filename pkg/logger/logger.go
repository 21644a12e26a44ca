package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger - общий интерфейс логирования сервиса.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(err error, format string, args ...any)
}

// ZerologLogger реализует Logger поверх zerolog с JSON-выводом.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger создаёт логгер в stdout, уровень берётся из LOG_LEVEL (debug, info, warn, error).
func NewZerologLogger() *ZerologLogger {
	return New(os.Stdout, ParseLevel(os.Getenv("LOG_LEVEL")))
}

// New создаёт логгер с произвольным writer-ом, удобно для тестов (io.Discard).
func New(w io.Writer, level zerolog.Level) *ZerologLogger {
	return &ZerologLogger{
		log: zerolog.New(w).Level(level).With().Timestamp().Logger(),
	}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

// Errorf пишет err в поле error. nil-ошибка допустима.
func (l *ZerologLogger) Errorf(err error, format string, args ...any) {
	l.log.Error().Err(err).Msgf(format, args...)
}

// ParseLevel понимает имена уровней zerolog и "warning". Пустое или неизвестное значение даёт info.
func ParseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}

	level, err := zerolog.ParseLevel(s)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
