// Package gallerytest provides an in-memory gallery.Catalog for tests.
package gallerytest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kevinfinalboss/galleon/internal/gallery"
	"github.com/kevinfinalboss/galleon/pkg/types"
)

type definitionRecord struct {
	definition types.ImageDefinition
	versions   []types.ImageVersion
}

type galleryRecord struct {
	gallery     gallery.Gallery
	definitions []*definitionRecord
}

// Memory keeps galleries keyed by resource id. Definitions and versions are
// returned in insertion order.
type Memory struct {
	mu        sync.Mutex
	galleries map[string]*galleryRecord

	// Failures injected by tests, keyed by "definition" or "definition/version".
	DefinitionCreateErrors map[string]error
	VersionCreateErrors    map[string]error
	VersionExistsErrors    map[string]error
	EnumerateError         error

	DefinitionCreates int
	VersionCreates    int
	CreatedVersions   []gallery.VersionPayload
}

func NewMemory() *Memory {
	return &Memory{
		galleries:              make(map[string]*galleryRecord),
		DefinitionCreateErrors: make(map[string]error),
		VersionCreateErrors:    make(map[string]error),
		VersionExistsErrors:    make(map[string]error),
	}
}

func (m *Memory) AddGallery(gc types.GalleryContext, location string) gallery.Gallery {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := gallery.Gallery{Context: gc, ID: gc.ResourceID(), Location: location}
	m.galleries[g.ID] = &galleryRecord{gallery: g}
	return g
}

func (m *Memory) AddDefinition(g gallery.Gallery, def types.ImageDefinition, versions ...types.ImageVersion) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.galleries[g.ID]
	if def.ID == "" {
		def.ID = g.ID + "/images/" + def.Name
	}
	for i := range versions {
		if versions[i].ID == "" {
			versions[i].ID = def.ID + "/versions/" + versions[i].Name
		}
	}
	rec.definitions = append(rec.definitions, &definitionRecord{definition: def, versions: versions})
}

func (m *Memory) record(g gallery.Gallery) (*galleryRecord, error) {
	rec, ok := m.galleries[g.ID]
	if !ok {
		return nil, notFound("gallery " + g.String())
	}
	return rec, nil
}

func (m *Memory) find(g gallery.Gallery, name string) (*definitionRecord, error) {
	rec, err := m.record(g)
	if err != nil {
		return nil, err
	}
	for _, d := range rec.definitions {
		if d.definition.Name == name {
			return d, nil
		}
	}
	return nil, notFound("image definition " + name)
}

func notFound(what string) error {
	return &gallery.ProviderError{StatusCode: 404, Code: "ResourceNotFound", Message: what + " was not found"}
}

func (m *Memory) GetGallery(_ context.Context, gc types.GalleryContext) (gallery.Gallery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.galleries[gc.ResourceID()]
	if !ok {
		return gallery.Gallery{}, notFound("gallery " + gc.String())
	}
	return rec.gallery, nil
}

func (m *Memory) ListGalleries(_ context.Context, subscriptionID, resourceGroup string) ([]gallery.Gallery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []gallery.Gallery
	for _, rec := range m.galleries {
		gc := rec.gallery.Context
		if gc.SubscriptionID == subscriptionID && (resourceGroup == "" || gc.ResourceGroup == resourceGroup) {
			out = append(out, rec.gallery)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) EnumerateDefinitions(_ context.Context, g gallery.Gallery) ([]types.ImageDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.EnumerateError != nil {
		return nil, m.EnumerateError
	}
	rec, err := m.record(g)
	if err != nil {
		return nil, err
	}

	out := make([]types.ImageDefinition, 0, len(rec.definitions))
	for _, d := range rec.definitions {
		out = append(out, d.definition)
	}
	return out, nil
}

func (m *Memory) EnumerateVersions(_ context.Context, g gallery.Gallery, definition string) ([]types.ImageVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.find(g, definition)
	if err != nil {
		return nil, err
	}
	out := make([]types.ImageVersion, len(d.versions))
	copy(out, d.versions)
	return out, nil
}

func (m *Memory) EnumerateAllWithVersions(ctx context.Context, g gallery.Gallery) ([]gallery.DefinitionEntry, error) {
	return gallery.EnumerateAll(ctx, m, g)
}

func (m *Memory) GetDefinition(_ context.Context, g gallery.Gallery, name string) (types.ImageDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.find(g, name)
	if err != nil {
		return types.ImageDefinition{}, err
	}
	return d.definition, nil
}

func (m *Memory) DefinitionExists(ctx context.Context, g gallery.Gallery, name string) (bool, error) {
	_, err := m.GetDefinition(ctx, g, name)
	if gallery.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

func (m *Memory) VersionExists(_ context.Context, g gallery.Gallery, definition, version string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.VersionExistsErrors[definition+"/"+version]; err != nil {
		return false, err
	}

	d, err := m.find(g, definition)
	if err != nil {
		if gallery.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	for _, v := range d.versions {
		if v.Name == version {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) CreateOrUpdateDefinition(_ context.Context, g gallery.Gallery, payload gallery.DefinitionPayload) (types.ImageDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DefinitionCreates++
	if err := m.DefinitionCreateErrors[payload.Name]; err != nil {
		return types.ImageDefinition{}, err
	}

	rec, err := m.record(g)
	if err != nil {
		return types.ImageDefinition{}, err
	}

	def := types.ImageDefinition{
		ID:                  g.ID + "/images/" + payload.Name,
		Name:                payload.Name,
		Location:            payload.Location,
		Identifier:          payload.Identifier,
		OSType:              payload.OSType,
		OSState:             payload.OSState,
		HyperVGeneration:    payload.HyperVGeneration,
		Architecture:        payload.Architecture,
		Description:         payload.Description,
		Eula:                payload.Eula,
		PrivacyStatementURI: payload.PrivacyStatementURI,
		ReleaseNoteURI:      payload.ReleaseNoteURI,
		Features:            payload.Features,
	}

	for _, d := range rec.definitions {
		if d.definition.Name == payload.Name {
			d.definition = def
			return def, nil
		}
	}
	rec.definitions = append(rec.definitions, &definitionRecord{definition: def})
	return def, nil
}

func (m *Memory) CreateOrUpdateVersion(_ context.Context, g gallery.Gallery, payload gallery.VersionPayload) (types.ImageVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.VersionCreates++
	if err := m.VersionCreateErrors[payload.DefinitionName+"/"+payload.Name]; err != nil {
		return types.ImageVersion{}, err
	}

	d, err := m.find(g, payload.DefinitionName)
	if err != nil {
		return types.ImageVersion{}, fmt.Errorf("parent definition: %w", err)
	}

	replicas := payload.ReplicaCount
	exclude := payload.ExcludeFromLatest
	version := types.ImageVersion{
		ID:       d.definition.ID + "/versions/" + payload.Name,
		Name:     payload.Name,
		Location: payload.Location,
		PublishingProfile: &types.PublishingProfile{
			ReplicaCount:      &replicas,
			ExcludeFromLatest: &exclude,
			EndOfLife:         payload.EndOfLife,
			TargetRegions:     payload.TargetRegions,
		},
	}

	m.CreatedVersions = append(m.CreatedVersions, payload)
	for i, v := range d.versions {
		if v.Name == payload.Name {
			d.versions[i] = version
			return version, nil
		}
	}
	d.versions = append(d.versions, version)
	return version, nil
}

func (m *Memory) Creates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.DefinitionCreates + m.VersionCreates
}

var _ gallery.Catalog = (*Memory)(nil)
