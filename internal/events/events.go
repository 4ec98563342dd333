// Package events emits audit events for each decision taken during a copy run.
// Recorders are observers only. A failing recorder never changes a run's outcome.
package events

import (
	"sort"
	"sync"
	"time"

	"github.com/kevinfinalboss/galleon/internal/logger"
	"github.com/rs/zerolog"
)

type Code string

const (
	QueryGallerySuccess          Code = "QUERY_GALLERY_SUCCESS"
	QueryGalleryFailed           Code = "QUERY_GALLERY_FAILED"
	CreateImageDefSuccess        Code = "CREATE_IMAGE_DEF_SUCCESS"
	CreateImageDefFailed         Code = "CREATE_IMAGE_DEF_FAILED"
	ImageDefExists               Code = "IMAGE_DEF_EXISTS"
	CreateVersionSuccess         Code = "CREATE_VERSION_SUCCESS"
	CreateVersionFailed          Code = "CREATE_VERSION_FAILED"
	VersionExists                Code = "VERSION_EXISTS"
	SkipVersionRegionUnavailable Code = "SKIP_VERSION_REGION_UNAVAILABLE"
	FilteredOutImage             Code = "FILTERED_OUT_IMAGE"
	FilteredOutVersion           Code = "FILTERED_OUT_VERSION"
	DryRunStart                  Code = "DRY_RUN_START"
	DryRunComplete               Code = "DRY_RUN_COMPLETE"
	CopyStart                    Code = "COPY_START"
	CopyComplete                 Code = "COPY_COMPLETE"
)

// Metadata keys shared by recorders and report consumers.
const (
	KeyResourceID       = "ResourceId"
	KeyTargetResourceID = "TargetResourceId"
	KeyImageName        = "ImageName"
	KeyVersionName      = "VersionName"
	KeyHTTPStatus       = "HttpStatus"
	KeyErrorCode        = "ErrorCode"
	KeyMode             = "Mode"
	KeySkipReason       = "SkipReason"
	KeyRegions          = "Regions"
)

const (
	ModeDryRun              = "DRY_RUN"
	SkipReasonCMKEncryption = "CMK_ENCRYPTION_DETECTED"
)

var codes = []Code{
	QueryGallerySuccess, QueryGalleryFailed,
	CreateImageDefSuccess, CreateImageDefFailed, ImageDefExists,
	CreateVersionSuccess, CreateVersionFailed, VersionExists,
	SkipVersionRegionUnavailable, FilteredOutImage, FilteredOutVersion,
	DryRunStart, DryRunComplete, CopyStart, CopyComplete,
}

// Codes returns the closed set of event codes.
func Codes() []Code {
	out := make([]Code, len(codes))
	copy(out, codes)
	return out
}

func (c Code) Valid() bool {
	for _, known := range codes {
		if c == known {
			return true
		}
	}
	return false
}

type Event struct {
	CorrelationID string
	Code          Code
	Level         zerolog.Level
	Message       string
	Metadata      map[string]string
	Err           error
	Time          time.Time
}

type Recorder interface {
	Record(event Event)
}

type LogRecorder struct {
	log *logger.Logger
}

func NewLogRecorder(log *logger.Logger) *LogRecorder {
	return &LogRecorder{log: log}
}

func (r *LogRecorder) Record(event Event) {
	entry := r.log.Event(event.Level, event.Message).
		Str("correlation_id", event.CorrelationID).
		Str("event_code", string(event.Code))

	keys := make([]string, 0, len(event.Metadata))
	for k := range event.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		entry = entry.Str(k, event.Metadata[k])
	}

	if event.Err != nil {
		entry = entry.Err(event.Err)
	}
	entry.Send()
}

// MemoryRecorder keeps every event in arrival order.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) Record(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *MemoryRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *MemoryRecorder) WithCode(code Code) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Code == code {
			out = append(out, e)
		}
	}
	return out
}

// Multi fans an event out to every recorder in order.
type Multi []Recorder

func (m Multi) Record(event Event) {
	for _, r := range m {
		if r != nil {
			r.Record(event)
		}
	}
}

type discard struct{}

func (discard) Record(Event) {}

var Discard Recorder = discard{}
