package gallery

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v6"
	"github.com/kevinfinalboss/galleon/pkg/types"
)

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return to.Ptr(s)
}

func definitionFromARM(image *armcompute.GalleryImage) types.ImageDefinition {
	def := types.ImageDefinition{
		ID:       deref(image.ID),
		Name:     deref(image.Name),
		Location: deref(image.Location),
	}

	props := image.Properties
	if props == nil {
		return def
	}

	if props.Identifier != nil {
		def.Identifier = types.ImageIdentifier{
			Publisher: deref(props.Identifier.Publisher),
			Offer:     deref(props.Identifier.Offer),
			SKU:       deref(props.Identifier.SKU),
		}
	}
	def.OSType = string(deref(props.OSType))
	def.OSState = string(deref(props.OSState))
	def.HyperVGeneration = string(deref(props.HyperVGeneration))
	def.Architecture = string(deref(props.Architecture))
	def.Description = deref(props.Description)
	def.Eula = deref(props.Eula)
	def.PrivacyStatementURI = deref(props.PrivacyStatementURI)
	def.ReleaseNoteURI = deref(props.ReleaseNoteURI)

	for _, f := range props.Features {
		if f == nil {
			continue
		}
		def.Features = append(def.Features, types.ImageFeature{Name: deref(f.Name), Value: deref(f.Value)})
	}
	return def
}

func definitionToARM(payload DefinitionPayload) armcompute.GalleryImage {
	props := &armcompute.GalleryImageProperties{
		Identifier: &armcompute.GalleryImageIdentifier{
			Publisher: to.Ptr(payload.Identifier.Publisher),
			Offer:     to.Ptr(payload.Identifier.Offer),
			SKU:       to.Ptr(payload.Identifier.SKU),
		},
		OSType:              to.Ptr(armcompute.OperatingSystemTypes(payload.OSType)),
		OSState:             to.Ptr(armcompute.OperatingSystemStateTypes(payload.OSState)),
		Description:         optional(payload.Description),
		Eula:                optional(payload.Eula),
		PrivacyStatementURI: optional(payload.PrivacyStatementURI),
		ReleaseNoteURI:      optional(payload.ReleaseNoteURI),
	}

	if payload.HyperVGeneration != "" {
		props.HyperVGeneration = to.Ptr(armcompute.HyperVGeneration(payload.HyperVGeneration))
	}
	if payload.Architecture != "" {
		props.Architecture = to.Ptr(armcompute.Architecture(payload.Architecture))
	}
	for _, f := range payload.Features {
		props.Features = append(props.Features, &armcompute.GalleryImageFeature{
			Name:  to.Ptr(f.Name),
			Value: to.Ptr(f.Value),
		})
	}

	return armcompute.GalleryImage{
		Location:   to.Ptr(payload.Location),
		Properties: props,
	}
}

func versionFromARM(version *armcompute.GalleryImageVersion) types.ImageVersion {
	v := types.ImageVersion{
		ID:       deref(version.ID),
		Name:     deref(version.Name),
		Location: deref(version.Location),
	}

	if version.Properties == nil || version.Properties.PublishingProfile == nil {
		return v
	}

	profile := version.Properties.PublishingProfile
	v.PublishingProfile = &types.PublishingProfile{
		ReplicaCount:      profile.ReplicaCount,
		ExcludeFromLatest: profile.ExcludeFromLatest,
		EndOfLife:         profile.EndOfLifeDate,
	}

	for _, region := range profile.TargetRegions {
		if region == nil {
			continue
		}
		tr := types.TargetRegion{
			Name:                 deref(region.Name),
			RegionalReplicaCount: region.RegionalReplicaCount,
			StorageAccountType:   string(deref(region.StorageAccountType)),
		}
		if region.Encryption != nil {
			tr.Encryption = encryptionFromARM(region.Encryption)
		}
		v.PublishingProfile.TargetRegions = append(v.PublishingProfile.TargetRegions, tr)
	}
	return v
}

// encryptionFromARM keeps a non-nil result even when no set id is present:
// any encryption block on a region counts as customer-managed.
func encryptionFromARM(enc *armcompute.EncryptionImages) *types.RegionEncryption {
	out := &types.RegionEncryption{}
	if enc.OSDiskImage != nil {
		out.OSDiskEncryptionSetID = deref(enc.OSDiskImage.DiskEncryptionSetID)
	}
	for _, d := range enc.DataDiskImages {
		if d != nil && d.DiskEncryptionSetID != nil {
			out.DataDiskEncryptionSetIDs = append(out.DataDiskEncryptionSetIDs, *d.DiskEncryptionSetID)
		}
	}
	return out
}

func versionToARM(payload VersionPayload) armcompute.GalleryImageVersion {
	profile := &armcompute.GalleryImageVersionPublishingProfile{
		ReplicaCount:      to.Ptr(payload.ReplicaCount),
		ExcludeFromLatest: to.Ptr(payload.ExcludeFromLatest),
		EndOfLifeDate:     payload.EndOfLife,
	}

	for _, region := range payload.TargetRegions {
		tr := &armcompute.TargetRegion{
			Name:                 to.Ptr(region.Name),
			RegionalReplicaCount: region.RegionalReplicaCount,
		}
		if region.StorageAccountType != "" {
			tr.StorageAccountType = to.Ptr(armcompute.StorageAccountType(region.StorageAccountType))
		}
		profile.TargetRegions = append(profile.TargetRegions, tr)
	}

	return armcompute.GalleryImageVersion{
		Location: to.Ptr(payload.Location),
		Properties: &armcompute.GalleryImageVersionProperties{
			StorageProfile: &armcompute.GalleryImageVersionStorageProfile{
				Source: &armcompute.GalleryArtifactVersionFullSource{
					ID: to.Ptr(payload.SourceVersionID),
				},
			},
			PublishingProfile: profile,
		},
	}
}

func galleryFromARM(gc types.GalleryContext, g *armcompute.Gallery) Gallery {
	out := Gallery{
		Context:  gc,
		ID:       deref(g.ID),
		Location: deref(g.Location),
	}
	if out.Context.GalleryName == "" {
		out.Context.GalleryName = deref(g.Name)
	}
	return out
}

// providerError turns an ARM response error into a *ProviderError. Other
// errors are returned unchanged.
func providerError(err error) error {
	if err == nil {
		return nil
	}

	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		return err
	}

	return &ProviderError{
		StatusCode: respErr.StatusCode,
		Code:       respErr.ErrorCode,
		Message:    responseMessage(respErr),
		Err:        err,
	}
}

// responseMessage extracts error.message from an ARM error body and falls
// back to the HTTP status text.
func responseMessage(respErr *azcore.ResponseError) string {
	if respErr.RawResponse != nil {
		if body, err := runtime.Payload(respErr.RawResponse); err == nil && len(body) > 0 {
			var payload struct {
				Error struct {
					Message string `json:"message"`
				} `json:"error"`
			}
			if json.Unmarshal(body, &payload) == nil && payload.Error.Message != "" {
				return payload.Error.Message
			}
		}
	}
	return http.StatusText(respErr.StatusCode)
}
