package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kevinfinalboss/galleon/pkg/types"
	"github.com/rs/zerolog"
)

type Logger struct {
	logger   zerolog.Logger
	language string
	messages map[string]string
}

func New() *Logger {
	return build(os.Stdout, "console", zerolog.InfoLevel, "en-US")
}

func NewWithConfig(cfg *types.Config) *Logger {
	return build(os.Stdout, cfg.Settings.LogFormat, ParseLevel(cfg.Settings.LogLevel), cfg.Settings.Language)
}

// NewWithWriter writes JSON lines to w, mostly for tests and report capture.
func NewWithWriter(w io.Writer, level string) *Logger {
	return build(w, "json", ParseLevel(level), "en-US")
}

func build(out io.Writer, format string, level zerolog.Level, language string) *Logger {
	var output io.Writer = out
	if !strings.EqualFold(format, "json") {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			FormatLevel: func(i interface{}) string {
				return strings.ToUpper(fmt.Sprintf("%-6s", i))
			},
		}
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	if language == "" {
		language = "en-US"
	}

	l := &Logger{
		logger:   logger,
		language: language,
	}
	l.loadMessages()
	return l
}

func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return zerolog.DebugLevel
	case "info", "information", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error", "critical":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) loadMessages() {
	messages, err := loadLocaleMessages(l.language)
	if err != nil {
		messages = getEmbeddedMessages(l.language)
	}
	l.messages = messages
}

func (l *Logger) GetMessage(key string) string {
	return l.getMessage(key)
}

func (l *Logger) getMessage(key string) string {
	if message, exists := l.messages[key]; exists {
		return message
	}

	if message, exists := getEmbeddedMessages("en-US")[key]; exists {
		return message
	}

	return key
}

func (l *Logger) Language() string {
	return l.language
}

func (l *Logger) Debug(key string) *zerolog.Event {
	return l.logger.Debug().Str("message", l.getMessage(key))
}

func (l *Logger) Info(key string) *zerolog.Event {
	return l.logger.Info().Str("message", l.getMessage(key))
}

func (l *Logger) Warn(key string) *zerolog.Event {
	return l.logger.Warn().Str("message", l.getMessage(key))
}

func (l *Logger) Error(key string) *zerolog.Event {
	return l.logger.Error().Str("message", l.getMessage(key))
}

// Event starts an entry at an arbitrary level. The message is used as-is.
func (l *Logger) Event(level zerolog.Level, message string) *zerolog.Event {
	return l.logger.WithLevel(level).Str("message", message)
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}

	return &Logger{
		logger:   ctx.Logger(),
		language: l.language,
		messages: l.messages,
	}
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		logger:   l.logger.With().Interface(key, value).Logger(),
		language: l.language,
		messages: l.messages,
	}
}
