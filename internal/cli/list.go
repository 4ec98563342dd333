package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/kevinfinalboss/galleon/internal/gallery"
	"github.com/kevinfinalboss/galleon/pkg/types"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type listOptions struct {
	subscription  string
	resourceGroup string
	gallery       string
	image         string
}

func newListCommand(a *app) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List galleries, image definitions or image versions",
		Long: `Lists what a gallery contains. Subscription, resource group and gallery default
to the source gallery of the configuration.`,
	}

	cmd.PersistentFlags().StringVar(&opts.subscription, "subscription", "", "subscription id (default source.subscription_id)")
	cmd.PersistentFlags().StringVar(&opts.resourceGroup, "resource-group", "", "resource group (default source.resource_group)")

	galleriesCmd := &cobra.Command{
		Use:   "galleries",
		Short: "List the galleries of a resource group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listGalleries(cmd, opts)
		},
	}

	imagesCmd := &cobra.Command{
		Use:   "images",
		Short: "List the image definitions of a gallery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listImages(cmd, opts)
		},
	}
	imagesCmd.Flags().StringVar(&opts.gallery, "gallery", "", "gallery name (default source.gallery)")

	versionsCmd := &cobra.Command{
		Use:   "versions",
		Short: "List the versions of an image definition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listVersions(cmd, opts)
		},
	}
	versionsCmd.Flags().StringVar(&opts.gallery, "gallery", "", "gallery name (default source.gallery)")
	versionsCmd.Flags().StringVar(&opts.image, "image", "", "image definition name")
	_ = versionsCmd.MarkFlagRequired("image")

	cmd.AddCommand(galleriesCmd, imagesCmd, versionsCmd)
	return cmd
}

func (o *listOptions) context(cfg *types.Config) types.GalleryContext {
	gc := cfg.Source
	if o.subscription != "" {
		gc.SubscriptionID = o.subscription
	}
	if o.resourceGroup != "" {
		gc.ResourceGroup = o.resourceGroup
	}
	if o.gallery != "" {
		gc.GalleryName = o.gallery
	}
	return gc
}

func (a *app) listGalleries(cmd *cobra.Command, opts *listOptions) error {
	gc := opts.context(a.cfg)
	if gc.SubscriptionID == "" || gc.ResourceGroup == "" {
		return &ExitError{Code: ExitValidation, Err: fmt.Errorf("subscription and resource group are required")}
	}

	catalog, err := a.newCatalog(a.cfg, a.log)
	if err != nil {
		return &ExitError{Code: ExitUnexpected, Err: err}
	}

	galleries, err := catalog.ListGalleries(a.context(cmd), gc.SubscriptionID, gc.ResourceGroup)
	if err != nil {
		return &ExitError{Code: ExitUnexpected, Err: fmt.Errorf("failed to list galleries: %w", err)}
	}

	data := pterm.TableData{{"Gallery", "Location"}}
	for _, g := range galleries {
		data = append(data, []string{g.Context.GalleryName, g.Location})
	}
	return a.printTable(data, len(galleries), "galleries")
}

func (a *app) listImages(cmd *cobra.Command, opts *listOptions) error {
	catalog, g, err := a.openGallery(cmd, opts)
	if err != nil {
		return err
	}

	definitions, err := catalog.EnumerateDefinitions(a.context(cmd), g)
	if err != nil {
		return &ExitError{Code: ExitUnexpected, Err: fmt.Errorf("failed to list image definitions: %w", err)}
	}

	data := pterm.TableData{{"Definition", "Publisher/Offer/SKU", "OS", "State", "Generation"}}
	for _, def := range definitions {
		data = append(data, []string{
			def.Name,
			strings.Join([]string{def.Identifier.Publisher, def.Identifier.Offer, def.Identifier.SKU}, "/"),
			def.OSType,
			def.OSState,
			def.HyperVGeneration,
		})
	}
	return a.printTable(data, len(definitions), "image definitions")
}

func (a *app) listVersions(cmd *cobra.Command, opts *listOptions) error {
	catalog, g, err := a.openGallery(cmd, opts)
	if err != nil {
		return err
	}

	versions, err := catalog.EnumerateVersions(a.context(cmd), g, opts.image)
	if err != nil {
		return &ExitError{Code: ExitUnexpected, Err: fmt.Errorf("failed to list versions of %s: %w", opts.image, err)}
	}
	SortVersions(versions)

	data := pterm.TableData{{"Version", "Location", "Target regions", "CMK"}}
	for _, v := range versions {
		var regions []string
		if v.PublishingProfile != nil {
			for _, r := range v.PublishingProfile.TargetRegions {
				regions = append(regions, r.Name)
			}
		}
		cmk := ""
		if v.HasCMKEncryption() {
			cmk = "yes"
		}
		data = append(data, []string{v.Name, v.Location, strings.Join(regions, ", "), cmk})
	}
	return a.printTable(data, len(versions), "image versions")
}

func (a *app) openGallery(cmd *cobra.Command, opts *listOptions) (gallery.Catalog, gallery.Gallery, error) {
	gc := opts.context(a.cfg)
	if gc.SubscriptionID == "" || gc.ResourceGroup == "" || gc.GalleryName == "" {
		return nil, gallery.Gallery{}, &ExitError{Code: ExitValidation,
			Err: fmt.Errorf("subscription, resource group and gallery are required")}
	}

	catalog, err := a.newCatalog(a.cfg, a.log)
	if err != nil {
		return nil, gallery.Gallery{}, &ExitError{Code: ExitUnexpected, Err: err}
	}

	g, err := catalog.GetGallery(a.context(cmd), gc)
	if err != nil {
		return nil, gallery.Gallery{}, &ExitError{Code: ExitUnexpected, Err: fmt.Errorf("failed to resolve gallery %s: %w", gc, err)}
	}
	return catalog, g, nil
}

func (a *app) printTable(data pterm.TableData, count int, noun string) error {
	if count == 0 {
		a.printf("No %s found.\n", noun)
		return nil
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	a.printf("%s\n", table)
	return nil
}

// SortVersions orders versions by semantic version when every name parses as
// one. Otherwise the provider order is kept.
func SortVersions(versions []types.ImageVersion) {
	parsed := make(map[string]*semver.Version, len(versions))
	for _, v := range versions {
		sv, err := semver.NewVersion(v.Name)
		if err != nil {
			return
		}
		parsed[v.Name] = sv
	}

	sort.SliceStable(versions, func(i, j int) bool {
		return parsed[versions[i].Name].LessThan(parsed[versions[j].Name])
	})
}
