package gallery

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v6"
	"github.com/kevinfinalboss/galleon/internal/logger"
	"github.com/kevinfinalboss/galleon/pkg/types"
)

const (
	AuthModeDefault     = "default"
	AuthModeInteractive = "interactive"
	AuthModeCLI         = "cli"
)

// NewCredential builds the token credential for the configured mode. The
// authentication tenant wins over the fallback tenant when both are set.
func NewCredential(auth types.AuthenticationConfig, fallbackTenant string) (azcore.TokenCredential, error) {
	tenant := auth.TenantID
	if tenant == "" {
		tenant = fallbackTenant
	}

	switch strings.ToLower(auth.Mode) {
	case AuthModeDefault, "":
		return azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
			TenantID: tenant,
		})
	case AuthModeInteractive:
		return azidentity.NewInteractiveBrowserCredential(&azidentity.InteractiveBrowserCredentialOptions{
			TenantID: tenant,
			ClientID: auth.ClientID,
		})
	case AuthModeCLI:
		return azidentity.NewAzureCLICredential(&azidentity.AzureCLICredentialOptions{
			TenantID: tenant,
		})
	default:
		return nil, fmt.Errorf("unsupported authentication mode %q", auth.Mode)
	}
}

// AzureCatalog talks to Azure Compute Galleries through Resource Manager.
// Client factories are created lazily, one per subscription.
type AzureCatalog struct {
	credential azcore.TokenCredential
	logger     *logger.Logger
	factories  map[string]*armcompute.ClientFactory
	mu         sync.RWMutex
}

func NewAzureCatalog(credential azcore.TokenCredential, log *logger.Logger) *AzureCatalog {
	return &AzureCatalog{
		credential: credential,
		logger:     log,
		factories:  make(map[string]*armcompute.ClientFactory),
	}
}

func (c *AzureCatalog) factory(subscriptionID string) (*armcompute.ClientFactory, error) {
	c.mu.RLock()
	f, exists := c.factories[subscriptionID]
	c.mu.RUnlock()
	if exists {
		return f, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if f, exists := c.factories[subscriptionID]; exists {
		return f, nil
	}

	f, err := armcompute.NewClientFactory(subscriptionID, c.credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create compute client for subscription %s: %w", subscriptionID, err)
	}
	c.factories[subscriptionID] = f

	c.logger.Debug("azure_client_created").
		Str("subscription", subscriptionID).
		Send()

	return f, nil
}

func (c *AzureCatalog) GetGallery(ctx context.Context, gc types.GalleryContext) (Gallery, error) {
	f, err := c.factory(gc.SubscriptionID)
	if err != nil {
		return Gallery{}, err
	}

	resp, err := f.NewGalleriesClient().Get(ctx, gc.ResourceGroup, gc.GalleryName, nil)
	if err != nil {
		return Gallery{}, providerError(err)
	}

	g := galleryFromARM(gc, &resp.Gallery)
	c.logger.Debug("gallery_resolved").
		Str("gallery", g.String()).
		Str("location", g.Location).
		Send()

	return g, nil
}

func (c *AzureCatalog) ListGalleries(ctx context.Context, subscriptionID, resourceGroup string) ([]Gallery, error) {
	f, err := c.factory(subscriptionID)
	if err != nil {
		return nil, err
	}

	client := f.NewGalleriesClient()
	base := types.GalleryContext{SubscriptionID: subscriptionID, ResourceGroup: resourceGroup}

	var galleries []Gallery
	appendPage := func(values []*armcompute.Gallery) {
		for _, g := range values {
			if g != nil {
				galleries = append(galleries, galleryFromARM(base, g))
			}
		}
	}

	if resourceGroup == "" {
		pager := client.NewListPager(nil)
		for pager.More() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				return nil, providerError(err)
			}
			appendPage(page.Value)
		}
		return galleries, nil
	}

	pager := client.NewListByResourceGroupPager(resourceGroup, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, providerError(err)
		}
		appendPage(page.Value)
	}
	return galleries, nil
}

func (c *AzureCatalog) EnumerateDefinitions(ctx context.Context, g Gallery) ([]types.ImageDefinition, error) {
	f, err := c.factory(g.Context.SubscriptionID)
	if err != nil {
		return nil, err
	}

	var definitions []types.ImageDefinition
	pager := f.NewGalleryImagesClient().NewListByGalleryPager(g.Context.ResourceGroup, g.Context.GalleryName, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, providerError(err)
		}
		for _, image := range page.Value {
			if image != nil {
				definitions = append(definitions, definitionFromARM(image))
			}
		}
	}
	return definitions, nil
}

func (c *AzureCatalog) EnumerateVersions(ctx context.Context, g Gallery, definition string) ([]types.ImageVersion, error) {
	f, err := c.factory(g.Context.SubscriptionID)
	if err != nil {
		return nil, err
	}

	var versions []types.ImageVersion
	pager := f.NewGalleryImageVersionsClient().NewListByGalleryImagePager(g.Context.ResourceGroup, g.Context.GalleryName, definition, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, providerError(err)
		}
		for _, version := range page.Value {
			if version != nil {
				versions = append(versions, versionFromARM(version))
			}
		}
	}
	return versions, nil
}

func (c *AzureCatalog) EnumerateAllWithVersions(ctx context.Context, g Gallery) ([]DefinitionEntry, error) {
	return EnumerateAll(ctx, c, g)
}

func (c *AzureCatalog) GetDefinition(ctx context.Context, g Gallery, name string) (types.ImageDefinition, error) {
	f, err := c.factory(g.Context.SubscriptionID)
	if err != nil {
		return types.ImageDefinition{}, err
	}

	resp, err := f.NewGalleryImagesClient().Get(ctx, g.Context.ResourceGroup, g.Context.GalleryName, name, nil)
	if err != nil {
		return types.ImageDefinition{}, providerError(err)
	}
	return definitionFromARM(&resp.GalleryImage), nil
}

func (c *AzureCatalog) DefinitionExists(ctx context.Context, g Gallery, name string) (bool, error) {
	_, err := c.GetDefinition(ctx, g, name)
	return existence(err)
}

func (c *AzureCatalog) VersionExists(ctx context.Context, g Gallery, definition, version string) (bool, error) {
	f, err := c.factory(g.Context.SubscriptionID)
	if err != nil {
		return false, err
	}

	_, err = f.NewGalleryImageVersionsClient().Get(ctx, g.Context.ResourceGroup, g.Context.GalleryName, definition, version, nil)
	return existence(providerError(err))
}

func existence(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if IsNotFound(err) {
		return false, nil
	}
	return false, err
}

func (c *AzureCatalog) CreateOrUpdateDefinition(ctx context.Context, g Gallery, payload DefinitionPayload) (types.ImageDefinition, error) {
	f, err := c.factory(g.Context.SubscriptionID)
	if err != nil {
		return types.ImageDefinition{}, err
	}

	poller, err := f.NewGalleryImagesClient().BeginCreateOrUpdate(ctx,
		g.Context.ResourceGroup, g.Context.GalleryName, payload.Name, definitionToARM(payload), nil)
	if err != nil {
		return types.ImageDefinition{}, providerError(err)
	}

	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return types.ImageDefinition{}, providerError(err)
	}
	return definitionFromARM(&resp.GalleryImage), nil
}

func (c *AzureCatalog) CreateOrUpdateVersion(ctx context.Context, g Gallery, payload VersionPayload) (types.ImageVersion, error) {
	f, err := c.factory(g.Context.SubscriptionID)
	if err != nil {
		return types.ImageVersion{}, err
	}

	poller, err := f.NewGalleryImageVersionsClient().BeginCreateOrUpdate(ctx,
		g.Context.ResourceGroup, g.Context.GalleryName, payload.DefinitionName, payload.Name, versionToARM(payload), nil)
	if err != nil {
		return types.ImageVersion{}, providerError(err)
	}

	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return types.ImageVersion{}, providerError(err)
	}
	return versionFromARM(&resp.GalleryImageVersion), nil
}
