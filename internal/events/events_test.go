package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/kevinfinalboss/galleon/internal/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRecorder_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	recorder := NewLogRecorder(logger.NewWithWriter(&buf, "debug"))

	recorder.Record(Event{
		CorrelationID: "OP-123",
		Code:          CreateVersionFailed,
		Level:         zerolog.ErrorLevel,
		Message:       "failed to create image version",
		Metadata: map[string]string{
			KeyImageName:   "ubuntu-2204",
			KeyVersionName: "1.0.0",
			KeyHTTPStatus:  "409",
		},
		Err: errors.New("conflict"),
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))

	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "OP-123", entry["correlation_id"])
	assert.Equal(t, "CREATE_VERSION_FAILED", entry["event_code"])
	assert.Equal(t, "failed to create image version", entry["message"])
	assert.Equal(t, "ubuntu-2204", entry["ImageName"])
	assert.Equal(t, "409", entry["HttpStatus"])
	assert.Equal(t, "conflict", entry["error"])
}

func TestLogRecorder_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	recorder := NewLogRecorder(logger.NewWithWriter(&buf, "warn"))

	recorder.Record(Event{Code: FilteredOutImage, Level: zerolog.DebugLevel, Message: "filtered"})
	assert.Empty(t, strings.TrimSpace(buf.String()))
}

func TestMemoryRecorder(t *testing.T) {
	recorder := NewMemoryRecorder()
	recorder.Record(Event{Code: CopyStart})
	recorder.Record(Event{Code: ImageDefExists})
	recorder.Record(Event{Code: CopyComplete})

	events := recorder.Events()
	require.Len(t, events, 3)
	assert.Equal(t, CopyStart, events[0].Code)
	assert.Len(t, recorder.WithCode(ImageDefExists), 1)
}

func TestMulti_SkipsNil(t *testing.T) {
	first := NewMemoryRecorder()
	second := NewMemoryRecorder()

	Multi{first, nil, second}.Record(Event{Code: DryRunStart})

	assert.Len(t, first.Events(), 1)
	assert.Len(t, second.Events(), 1)
}

func TestCodes_Closed(t *testing.T) {
	for _, code := range Codes() {
		assert.True(t, code.Valid(), code)
	}
	assert.False(t, Code("SOMETHING_ELSE").Valid())
}
