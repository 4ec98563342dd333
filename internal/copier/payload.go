package copier

import (
	"strings"

	"github.com/kevinfinalboss/galleon/internal/gallery"
	"github.com/kevinfinalboss/galleon/pkg/types"
)

const defaultReplicaCount int32 = 1

var unusualRegionMarkers = []string{"euap", "canary", "stage", "test"}

// BuildDefinitionPayload copies the identity and descriptive fields of a
// source definition. The location always comes from the target gallery.
func BuildDefinitionPayload(source types.ImageDefinition, target gallery.Gallery) gallery.DefinitionPayload {
	var features []types.ImageFeature
	if len(source.Features) > 0 {
		features = make([]types.ImageFeature, len(source.Features))
		copy(features, source.Features)
	}

	return gallery.DefinitionPayload{
		Name:                source.Name,
		Location:            target.Location,
		Identifier:          source.Identifier,
		OSType:              source.OSType,
		OSState:             source.OSState,
		HyperVGeneration:    source.HyperVGeneration,
		Architecture:        source.Architecture,
		Description:         source.Description,
		Eula:                source.Eula,
		PrivacyStatementURI: source.PrivacyStatementURI,
		ReleaseNoteURI:      source.ReleaseNoteURI,
		Features:            features,
	}
}

// BuildVersionPayload points the new version at the source version and copies
// its publishing profile. Without source regions the version is published to
// the target gallery's own location only.
func BuildVersionPayload(source types.ImageVersion, definition string, target gallery.Gallery) gallery.VersionPayload {
	payload := gallery.VersionPayload{
		DefinitionName:  definition,
		Name:            source.Name,
		Location:        target.Location,
		SourceVersionID: source.ID,
		ReplicaCount:    defaultReplicaCount,
	}

	profile := source.PublishingProfile
	if profile != nil {
		if profile.ReplicaCount != nil {
			payload.ReplicaCount = *profile.ReplicaCount
		}
		if profile.ExcludeFromLatest != nil {
			payload.ExcludeFromLatest = *profile.ExcludeFromLatest
		}
		if profile.EndOfLife != nil {
			eol := *profile.EndOfLife
			payload.EndOfLife = &eol
		}
		for _, region := range profile.TargetRegions {
			payload.TargetRegions = append(payload.TargetRegions, types.TargetRegion{
				Name:                 region.Name,
				RegionalReplicaCount: region.RegionalReplicaCount,
				StorageAccountType:   region.StorageAccountType,
			})
		}
	}

	if len(payload.TargetRegions) == 0 {
		payload.TargetRegions = []types.TargetRegion{{Name: target.Location}}
	}
	return payload
}

// UnusualRegions returns region names that look like canary or internal
// regions. They are often unavailable to other subscriptions.
func UnusualRegions(regions []types.TargetRegion) []string {
	var out []string
	for _, region := range regions {
		name := strings.ToLower(region.Name)
		for _, marker := range unusualRegionMarkers {
			if strings.Contains(name, marker) {
				out = append(out, region.Name)
				break
			}
		}
	}
	return out
}
