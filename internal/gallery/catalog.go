// Package gallery defines how galleon reads from and writes to a compute
// gallery, and provides the Azure Resource Manager implementation.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kevinfinalboss/galleon/pkg/types"
)

var ErrNotFound = errors.New("resource not found")

// Gallery is a resolved endpoint: the configured context plus what the
// provider reports about it.
type Gallery struct {
	Context  types.GalleryContext `json:"context"`
	ID       string               `json:"id"`
	Location string               `json:"location"`
}

func (g Gallery) String() string {
	return g.Context.String()
}

type DefinitionEntry struct {
	Definition types.ImageDefinition
	Versions   []types.ImageVersion
}

type Query interface {
	GetGallery(ctx context.Context, gc types.GalleryContext) (Gallery, error)
	ListGalleries(ctx context.Context, subscriptionID, resourceGroup string) ([]Gallery, error)
	EnumerateDefinitions(ctx context.Context, g Gallery) ([]types.ImageDefinition, error)
	EnumerateVersions(ctx context.Context, g Gallery, definition string) ([]types.ImageVersion, error)
	EnumerateAllWithVersions(ctx context.Context, g Gallery) ([]DefinitionEntry, error)
	GetDefinition(ctx context.Context, g Gallery, name string) (types.ImageDefinition, error)
	DefinitionExists(ctx context.Context, g Gallery, name string) (bool, error)
	VersionExists(ctx context.Context, g Gallery, definition, version string) (bool, error)
}

// Creator issues create-or-update calls and waits for them to finish.
type Creator interface {
	CreateOrUpdateDefinition(ctx context.Context, g Gallery, payload DefinitionPayload) (types.ImageDefinition, error)
	CreateOrUpdateVersion(ctx context.Context, g Gallery, payload VersionPayload) (types.ImageVersion, error)
}

type Catalog interface {
	Query
	Creator
}

type DefinitionPayload struct {
	Name                string
	Location            string
	Identifier          types.ImageIdentifier
	OSType              string
	OSState             string
	HyperVGeneration    string
	Architecture        string
	Description         string
	Eula                string
	PrivacyStatementURI string
	ReleaseNoteURI      string
	Features            []types.ImageFeature
}

type VersionPayload struct {
	DefinitionName    string
	Name              string
	Location          string
	SourceVersionID   string
	ReplicaCount      int32
	ExcludeFromLatest bool
	EndOfLife         *time.Time
	TargetRegions     []types.TargetRegion
}

// ProviderError is a typed failure reported by the remote provider.
type ProviderError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("Status: %d, ErrorCode: %s, Message: %s", e.StatusCode, e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return errors.Join(e.Err, ErrNotFound)
	}
	return e.Err
}

func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

type enumerator interface {
	EnumerateDefinitions(ctx context.Context, g Gallery) ([]types.ImageDefinition, error)
	EnumerateVersions(ctx context.Context, g Gallery, definition string) ([]types.ImageVersion, error)
}

// EnumerateAll lists every definition of g with its versions, preserving
// provider order. Any failure aborts the listing.
func EnumerateAll(ctx context.Context, q enumerator, g Gallery) ([]DefinitionEntry, error) {
	definitions, err := q.EnumerateDefinitions(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("failed to list image definitions in %s: %w", g, err)
	}

	entries := make([]DefinitionEntry, 0, len(definitions))
	for _, def := range definitions {
		versions, err := q.EnumerateVersions(ctx, g, def.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to list versions of %s in %s: %w", def.Name, g, err)
		}
		entries = append(entries, DefinitionEntry{Definition: def, Versions: versions})
	}
	return entries, nil
}
