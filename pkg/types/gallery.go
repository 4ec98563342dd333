package types

import (
	"fmt"
	"time"
)

// GalleryContext identifies one endpoint of a copy run.
type GalleryContext struct {
	TenantID       string `yaml:"tenant_id" mapstructure:"tenant_id" json:"tenant_id"`
	SubscriptionID string `yaml:"subscription_id" mapstructure:"subscription_id" json:"subscription_id"`
	ResourceGroup  string `yaml:"resource_group" mapstructure:"resource_group" json:"resource_group"`
	GalleryName    string `yaml:"gallery" mapstructure:"gallery" json:"gallery"`
}

func (c GalleryContext) ResourceID() string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Compute/galleries/%s",
		c.SubscriptionID, c.ResourceGroup, c.GalleryName)
}

func (c GalleryContext) String() string {
	return fmt.Sprintf("%s/%s/%s", c.SubscriptionID, c.ResourceGroup, c.GalleryName)
}

type ImageIdentifier struct {
	Publisher string `json:"publisher"`
	Offer     string `json:"offer"`
	SKU       string `json:"sku"`
}

type ImageFeature struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ImageDefinition is a gallery image definition as seen by the copier.
type ImageDefinition struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Location            string          `json:"location"`
	Identifier          ImageIdentifier `json:"identifier"`
	OSType              string          `json:"os_type"`
	OSState             string          `json:"os_state"`
	HyperVGeneration    string          `json:"hyper_v_generation,omitempty"`
	Architecture        string          `json:"architecture,omitempty"`
	Description         string          `json:"description,omitempty"`
	Eula                string          `json:"eula,omitempty"`
	PrivacyStatementURI string          `json:"privacy_statement_uri,omitempty"`
	ReleaseNoteURI      string          `json:"release_note_uri,omitempty"`
	Features            []ImageFeature  `json:"features,omitempty"`
}

// SameImmutableAttributes reports whether two definitions agree on the
// attributes a gallery refuses to change after creation.
func (d ImageDefinition) SameImmutableAttributes(other ImageDefinition) bool {
	return d.Identifier == other.Identifier &&
		d.OSType == other.OSType &&
		d.OSState == other.OSState &&
		(d.HyperVGeneration == "" || other.HyperVGeneration == "" || d.HyperVGeneration == other.HyperVGeneration) &&
		(d.Architecture == "" || other.Architecture == "" || d.Architecture == other.Architecture)
}

// RegionEncryption is a customer-managed-key setting on a target region.
type RegionEncryption struct {
	OSDiskEncryptionSetID    string   `json:"os_disk_encryption_set_id,omitempty"`
	DataDiskEncryptionSetIDs []string `json:"data_disk_encryption_set_ids,omitempty"`
}

type TargetRegion struct {
	Name                 string            `json:"name"`
	RegionalReplicaCount *int32            `json:"regional_replica_count,omitempty"`
	StorageAccountType   string            `json:"storage_account_type,omitempty"`
	Encryption           *RegionEncryption `json:"encryption,omitempty"`
}

type PublishingProfile struct {
	ReplicaCount      *int32         `json:"replica_count,omitempty"`
	ExcludeFromLatest *bool          `json:"exclude_from_latest,omitempty"`
	EndOfLife         *time.Time     `json:"end_of_life,omitempty"`
	TargetRegions     []TargetRegion `json:"target_regions,omitempty"`
}

type ImageVersion struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Location          string             `json:"location"`
	PublishingProfile *PublishingProfile `json:"publishing_profile,omitempty"`
}

// EncryptedRegions returns the names of target regions carrying a CMK setting.
func (v ImageVersion) EncryptedRegions() []string {
	if v.PublishingProfile == nil {
		return nil
	}

	var regions []string
	for _, region := range v.PublishingProfile.TargetRegions {
		if region.Encryption != nil {
			regions = append(regions, region.Name)
		}
	}
	return regions
}

func (v ImageVersion) HasCMKEncryption() bool {
	return len(v.EncryptedRegions()) > 0
}
