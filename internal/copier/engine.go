// Package copier replicates image definitions and versions from one compute
// gallery to another.
package copier

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kevinfinalboss/galleon/internal/events"
	"github.com/kevinfinalboss/galleon/internal/filter"
	"github.com/kevinfinalboss/galleon/internal/gallery"
	"github.com/kevinfinalboss/galleon/internal/logger"
	"github.com/kevinfinalboss/galleon/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	ErrorCodeDefinitionFailed = "CreateImageDefinitionFailed"
	ErrorCodeVersionFailed    = "CreateImageVersionFailed"
)

type Option func(*Engine)

// WithConcurrency processes up to n definitions at once. Versions of one
// definition are always handled in order after the definition itself.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

type Engine struct {
	query       gallery.Query
	creator     gallery.Creator
	logger      *logger.Logger
	recorder    events.Recorder
	concurrency int
	now         func() time.Time
	newID       func() string
}

func NewEngine(query gallery.Query, creator gallery.Creator, log *logger.Logger, recorder events.Recorder, opts ...Option) *Engine {
	if recorder == nil {
		recorder = events.Discard
	}

	engine := &Engine{
		query:       query,
		creator:     creator,
		logger:      log,
		recorder:    recorder,
		concurrency: 1,
		now:         time.Now,
		newID:       NewOperationID,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

func NewOperationID() string {
	return "OP-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CopyAll copies every eligible definition and version of source into target.
// A nil criteria admits everything. Only invalid input or a failed source
// listing return an error; per-item failures are recorded in the summary.
func (e *Engine) CopyAll(ctx context.Context, source, target gallery.Gallery, criteria *types.FilterCriteria, dryRun bool) (*types.CopySummary, error) {
	var exec Executor = PlanExecutor{}
	if !dryRun {
		exec = NewLiveExecutor(e.creator)
	}
	return e.Run(ctx, exec, source, target, criteria)
}

// Run is CopyAll with an explicit executor.
func (e *Engine) Run(ctx context.Context, exec Executor, source, target gallery.Gallery, criteria *types.FilterCriteria) (*types.CopySummary, error) {
	if criteria == nil {
		criteria = &types.FilterCriteria{MatchMode: types.MatchModePrefix}
	}
	if err := filter.Validate(criteria); err != nil {
		return nil, err
	}

	r := &run{
		engine:   e,
		exec:     exec,
		source:   source,
		target:   target,
		criteria: criteria,
	}

	start := e.now()
	runID := e.newID()

	startCode, completeCode := events.CopyStart, events.CopyComplete
	if exec.Simulated() {
		startCode, completeCode = events.DryRunStart, events.DryRunComplete
	}

	e.logger.Info("copy_started").
		Str("source", source.String()).
		Str("target", target.String()).
		Bool("dry_run", exec.Simulated()).
		Int("concurrency", e.concurrency).
		Send()

	r.emit(events.Event{
		CorrelationID: runID,
		Code:          startCode,
		Level:         zerolog.InfoLevel,
		Message:       fmt.Sprintf("Copy from '%s' to '%s' started", source, target),
		Metadata: map[string]string{
			events.KeyResourceID:       source.ID,
			events.KeyTargetResourceID: target.ID,
		},
	})

	entries, err := e.query.EnumerateAllWithVersions(ctx, source)
	if err != nil {
		r.emit(events.Event{
			CorrelationID: runID,
			Code:          events.QueryGalleryFailed,
			Level:         zerolog.ErrorLevel,
			Message:       fmt.Sprintf("Failed to query source gallery '%s'", source),
			Metadata:      failureMetadata(map[string]string{events.KeyResourceID: source.ID}, classify(err, "")),
			Err:           err,
		})
		return nil, fmt.Errorf("failed to enumerate source gallery %s: %w", source, err)
	}

	r.emit(events.Event{
		CorrelationID: runID,
		Code:          events.QueryGallerySuccess,
		Level:         zerolog.InfoLevel,
		Message:       fmt.Sprintf("Found %d image definitions in source gallery '%s'", len(entries), source),
		Metadata:      map[string]string{events.KeyResourceID: source.ID},
	})

	if err := checkNames(entries); err != nil {
		return nil, err
	}

	operations, err := r.processAll(ctx, entries)
	if err != nil {
		return nil, err
	}
	summary := types.NewCopySummary(start, e.now(), source.Context, target.Context, exec.Simulated(), operations)

	r.emit(events.Event{
		CorrelationID: runID,
		Code:          completeCode,
		Level:         zerolog.InfoLevel,
		Message:       fmt.Sprintf("Copy from '%s' to '%s' completed", source, target),
		Metadata: map[string]string{
			events.KeyResourceID:       source.ID,
			events.KeyTargetResourceID: target.ID,
		},
	})

	e.logger.Info("copy_completed").
		Int("created_definitions", summary.CreatedImageDefinitions).
		Int("created_versions", summary.CreatedImageVersions).
		Int("skipped_versions", summary.SkippedImageVersions).
		Int("failed_operations", summary.FailedOperations).
		Dur("duration", summary.Duration()).
		Bool("dry_run", summary.IsDryRun).
		Send()

	return summary, nil
}

// emit never lets a misbehaving recorder reach the caller.
func (e *Engine) emit(event events.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Warn("event_recorder_failed").
				Str("event_code", string(event.Code)).
				Interface("panic", rec).
				Send()
		}
	}()
	e.recorder.Record(event)
}

type run struct {
	engine   *Engine
	exec     Executor
	source   gallery.Gallery
	target   gallery.Gallery
	criteria *types.FilterCriteria
}

// checkNames rejects a listing with unnamed items before anything is created.
func checkNames(entries []gallery.DefinitionEntry) error {
	for _, entry := range entries {
		if entry.Definition.Name == "" {
			return fmt.Errorf("%w: image definition %q has no name", filter.ErrInvalidArgument, entry.Definition.ID)
		}
		for _, v := range entry.Versions {
			if v.Name == "" {
				return fmt.Errorf("%w: a version of image definition %s has no name", filter.ErrInvalidArgument, entry.Definition.Name)
			}
		}
	}
	return nil
}

// processAll keeps the source order of operations even when definitions are
// processed concurrently: each definition fills its own slot.
func (r *run) processAll(ctx context.Context, entries []gallery.DefinitionEntry) ([]types.CopyOperation, error) {
	perDefinition := make([][]types.CopyOperation, len(entries))

	if r.engine.concurrency <= 1 {
		for i, entry := range entries {
			ops, err := r.processDefinition(ctx, entry)
			if err != nil {
				return nil, err
			}
			perDefinition[i] = ops
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.engine.concurrency)
		for i, entry := range entries {
			i, entry := i, entry
			g.Go(func() error {
				ops, err := r.processDefinition(gctx, entry)
				perDefinition[i] = ops
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	var operations []types.CopyOperation
	for _, batch := range perDefinition {
		operations = append(operations, batch...)
	}
	return operations, nil
}

// processDefinition only returns an error when the name cannot be matched
// against the criteria. Provider failures become Failed operations.
func (r *run) processDefinition(ctx context.Context, entry gallery.DefinitionEntry) ([]types.CopyOperation, error) {
	source := entry.Definition
	name := source.Name

	eligible, err := filter.MatchesImageDefinition(name, r.criteria)
	if err != nil {
		return nil, err
	}
	if !eligible {
		r.emit(events.Event{
			CorrelationID: r.engine.newID(),
			Code:          events.FilteredOutImage,
			Level:         zerolog.DebugLevel,
			Message:       fmt.Sprintf("Image definition '%s' filtered out", name),
			Metadata:      map[string]string{events.KeyResourceID: source.ID, events.KeyImageName: name},
		})
		return nil, nil
	}

	var operations []types.CopyOperation
	p := r.begin(types.OperationCreateImageDefinition, name, "")
	metadata := map[string]string{
		events.KeyResourceID: source.ID,
		events.KeyImageName:  name,
	}

	exists, err := r.engine.query.DefinitionExists(ctx, r.target, name)
	if err != nil {
		op := r.fail(p, err, ErrorCodeDefinitionFailed, events.CreateImageDefFailed, metadata,
			fmt.Sprintf("Failed to check image definition '%s' in target gallery", name))
		return append(operations, op), nil
	}

	if exists {
		r.emit(events.Event{
			CorrelationID: p.id,
			Code:          events.ImageDefExists,
			Level:         zerolog.InfoLevel,
			Message:       fmt.Sprintf("Image definition '%s' already exists in target gallery", name),
			Metadata:      metadata,
		})
		operations = append(operations, r.finish(p, types.ResultSkipped, types.SkipReasonDefinitionExists))
		r.compareAttributes(ctx, source)
	} else {
		created, err := r.exec.CreateDefinition(ctx, r.target, BuildDefinitionPayload(source, r.target))
		if err != nil {
			op := r.fail(p, err, ErrorCodeDefinitionFailed, events.CreateImageDefFailed, metadata,
				fmt.Sprintf("Failed to create image definition '%s'", name))
			return append(operations, op), nil
		}

		metadata[events.KeyTargetResourceID] = created.ID
		r.emit(events.Event{
			CorrelationID: p.id,
			Code:          events.CreateImageDefSuccess,
			Level:         zerolog.InfoLevel,
			Message:       r.created(fmt.Sprintf("Image definition '%s'", name)),
			Metadata:      metadata,
		})
		operations = append(operations, r.finish(p, types.ResultSuccess, ""))
	}

	for _, version := range entry.Versions {
		op, attempted, err := r.processVersion(ctx, name, version, exists)
		if err != nil {
			return nil, err
		}
		if attempted {
			operations = append(operations, op)
		}
	}
	return operations, nil
}

// processVersion reports false when the version was never attempted.
// Existence is only checked when the target definition was already there
// before this run.
func (r *run) processVersion(ctx context.Context, definition string, source types.ImageVersion, targetExisted bool) (types.CopyOperation, bool, error) {
	name := source.Name

	eligible, err := filter.MatchesVersion(name, r.criteria)
	if err != nil {
		return types.CopyOperation{}, false, err
	}
	if !eligible {
		r.emit(events.Event{
			CorrelationID: r.engine.newID(),
			Code:          events.FilteredOutVersion,
			Level:         zerolog.DebugLevel,
			Message:       fmt.Sprintf("Image version '%s/%s' filtered out", definition, name),
			Metadata: map[string]string{
				events.KeyResourceID:  source.ID,
				events.KeyImageName:   definition,
				events.KeyVersionName: name,
			},
		})
		return types.CopyOperation{}, false, nil
	}

	p := r.begin(types.OperationCreateImageVersion, definition, name)
	metadata := map[string]string{
		events.KeyResourceID:  source.ID,
		events.KeyImageName:   definition,
		events.KeyVersionName: name,
	}

	if targetExisted {
		exists, err := r.engine.query.VersionExists(ctx, r.target, definition, name)
		if err != nil {
			return r.fail(p, err, ErrorCodeVersionFailed, events.CreateVersionFailed, metadata,
				fmt.Sprintf("Failed to check image version '%s/%s' in target gallery", definition, name)), true, nil
		}
		if exists {
			r.emit(events.Event{
				CorrelationID: p.id,
				Code:          events.VersionExists,
				Level:         zerolog.InfoLevel,
				Message:       fmt.Sprintf("Image version '%s/%s' already exists in target gallery", definition, name),
				Metadata:      metadata,
			})
			return r.finish(p, types.ResultSkipped, types.SkipReasonVersionExists), true, nil
		}
	}

	if regions := source.EncryptedRegions(); len(regions) > 0 {
		metadata[events.KeySkipReason] = events.SkipReasonCMKEncryption
		metadata[events.KeyRegions] = strings.Join(regions, ",")
		r.emit(events.Event{
			CorrelationID: p.id,
			Code:          events.SkipVersionRegionUnavailable,
			Level:         zerolog.WarnLevel,
			Message:       fmt.Sprintf("Image version '%s/%s' skipped: CMK encryption not supported", definition, name),
			Metadata:      metadata,
		})
		return r.finish(p, types.ResultSkipped, types.SkipReasonCMKEncryption), true, nil
	}

	payload := BuildVersionPayload(source, definition, r.target)
	if unusual := UnusualRegions(payload.TargetRegions); len(unusual) > 0 {
		r.engine.logger.Warn("unusual_target_regions").
			Str("image", definition).
			Str("version", name).
			Strs("regions", unusual).
			Send()
	}

	created, err := r.exec.CreateVersion(ctx, r.target, payload)
	if err != nil {
		return r.fail(p, err, ErrorCodeVersionFailed, events.CreateVersionFailed, metadata,
			fmt.Sprintf("Failed to create image version '%s/%s'", definition, name)), true, nil
	}

	metadata[events.KeyTargetResourceID] = created.ID
	r.emit(events.Event{
		CorrelationID: p.id,
		Code:          events.CreateVersionSuccess,
		Level:         zerolog.InfoLevel,
		Message:       r.created(fmt.Sprintf("Image version '%s/%s'", definition, name)),
		Metadata:      metadata,
	})
	return r.finish(p, types.ResultSuccess, ""), true, nil
}

// compareAttributes only logs. A mismatch surfaces later as a rejected
// version create.
func (r *run) compareAttributes(ctx context.Context, source types.ImageDefinition) {
	existing, err := r.engine.query.GetDefinition(ctx, r.target, source.Name)
	if err != nil {
		r.engine.logger.Debug("definition_lookup_failed").
			Str("image", source.Name).
			Err(err).
			Send()
		return
	}

	if !source.SameImmutableAttributes(existing) {
		r.engine.logger.Warn("definition_attributes_differ").
			Str("image", source.Name).
			Str("source_identifier", identifier(source.Identifier)).
			Str("target_identifier", identifier(existing.Identifier)).
			Str("source_os", source.OSType+"/"+source.OSState).
			Str("target_os", existing.OSType+"/"+existing.OSState).
			Send()
	}
}

func identifier(id types.ImageIdentifier) string {
	return id.Publisher + ":" + id.Offer + ":" + id.SKU
}

type pending struct {
	id         string
	kind       types.OperationType
	definition string
	version    string
	start      time.Time
}

func (r *run) begin(kind types.OperationType, definition, version string) pending {
	return pending{
		id:         r.engine.newID(),
		kind:       kind,
		definition: definition,
		version:    version,
		start:      r.engine.now(),
	}
}

func (r *run) finish(p pending, result types.OperationResult, skipReason string) types.CopyOperation {
	return types.CopyOperation{
		OperationID:    p.id,
		Type:           p.kind,
		DefinitionName: p.definition,
		VersionName:    p.version,
		Result:         result,
		SkipReason:     skipReason,
		StartTime:      p.start,
		EndTime:        r.engine.now(),
	}
}

func (r *run) fail(p pending, err error, fallbackCode string, code events.Code, metadata map[string]string, message string) types.CopyOperation {
	f := classify(err, fallbackCode)

	r.emit(events.Event{
		CorrelationID: p.id,
		Code:          code,
		Level:         zerolog.ErrorLevel,
		Message:       message + ": " + f.message,
		Metadata:      failureMetadata(metadata, f),
		Err:           err,
	})

	op := r.finish(p, types.ResultFailed, "")
	op.ErrorMessage = f.message
	op.ErrorCode = f.code
	return op
}

func (r *run) created(subject string) string {
	if r.exec.Simulated() {
		return "[DRY RUN] " + subject + " would be created"
	}
	return subject + " created"
}

func (r *run) emit(event events.Event) {
	if event.Time.IsZero() {
		event.Time = r.engine.now()
	}
	if r.exec.Simulated() {
		metadata := make(map[string]string, len(event.Metadata)+1)
		for k, v := range event.Metadata {
			metadata[k] = v
		}
		metadata[events.KeyMode] = events.ModeDryRun
		event.Metadata = metadata
	}
	r.engine.emit(event)
}

type failure struct {
	message string
	code    string
	status  int
}

// classify is the single place where a create or query error is turned into
// the fields of a Failed operation.
func classify(err error, fallbackCode string) failure {
	if pe, ok := gallery.AsProviderError(err); ok {
		code := pe.Code
		if code == "" {
			code = fallbackCode
		}
		return failure{message: pe.Error(), code: code, status: pe.StatusCode}
	}
	return failure{message: err.Error(), code: fallbackCode}
}

func failureMetadata(base map[string]string, f failure) map[string]string {
	metadata := make(map[string]string, len(base)+2)
	for k, v := range base {
		metadata[k] = v
	}
	if f.status != 0 {
		metadata[events.KeyHTTPStatus] = strconv.Itoa(f.status)
	}
	if f.code != "" {
		metadata[events.KeyErrorCode] = f.code
	}
	return metadata
}
