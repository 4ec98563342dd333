package logger

import (
	"io"

	"github.com/rs/zerolog"
)

func NewTest() *Logger {
	testLogger := zerolog.New(io.Discard).Level(zerolog.Disabled)

	return &Logger{
		logger:   testLogger,
		language: "en-US",
		messages: getEmbeddedMessages("en-US"),
	}
}
