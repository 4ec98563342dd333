package copier

import (
	"context"

	"github.com/kevinfinalboss/galleon/internal/gallery"
	"github.com/kevinfinalboss/galleon/pkg/types"
)

// Executor performs the mutating half of a run. The engine makes every
// decision and hands only the resulting creates to the executor.
type Executor interface {
	CreateDefinition(ctx context.Context, target gallery.Gallery, payload gallery.DefinitionPayload) (types.ImageDefinition, error)
	CreateVersion(ctx context.Context, target gallery.Gallery, payload gallery.VersionPayload) (types.ImageVersion, error)
	Simulated() bool
}

type LiveExecutor struct {
	creator gallery.Creator
}

func NewLiveExecutor(creator gallery.Creator) *LiveExecutor {
	return &LiveExecutor{creator: creator}
}

func (e *LiveExecutor) CreateDefinition(ctx context.Context, target gallery.Gallery, payload gallery.DefinitionPayload) (types.ImageDefinition, error) {
	return e.creator.CreateOrUpdateDefinition(ctx, target, payload)
}

func (e *LiveExecutor) CreateVersion(ctx context.Context, target gallery.Gallery, payload gallery.VersionPayload) (types.ImageVersion, error) {
	return e.creator.CreateOrUpdateVersion(ctx, target, payload)
}

func (e *LiveExecutor) Simulated() bool { return false }

// PlanExecutor never calls the provider and reports every create as done.
type PlanExecutor struct{}

func (PlanExecutor) CreateDefinition(_ context.Context, target gallery.Gallery, payload gallery.DefinitionPayload) (types.ImageDefinition, error) {
	return types.ImageDefinition{
		ID:               target.ID + "/images/" + payload.Name,
		Name:             payload.Name,
		Location:         payload.Location,
		Identifier:       payload.Identifier,
		OSType:           payload.OSType,
		OSState:          payload.OSState,
		HyperVGeneration: payload.HyperVGeneration,
		Architecture:     payload.Architecture,
		Description:      payload.Description,
	}, nil
}

func (PlanExecutor) CreateVersion(_ context.Context, target gallery.Gallery, payload gallery.VersionPayload) (types.ImageVersion, error) {
	return types.ImageVersion{
		ID:       target.ID + "/images/" + payload.DefinitionName + "/versions/" + payload.Name,
		Name:     payload.Name,
		Location: payload.Location,
	}, nil
}

func (PlanExecutor) Simulated() bool { return true }
