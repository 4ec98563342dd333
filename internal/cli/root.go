package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kevinfinalboss/galleon/internal/config"
	"github.com/kevinfinalboss/galleon/internal/gallery"
	"github.com/kevinfinalboss/galleon/internal/logger"
	"github.com/kevinfinalboss/galleon/pkg/types"
	"github.com/spf13/cobra"
)

var Version = "dev"

// CatalogFactory opens the gallery catalog a command talks to.
type CatalogFactory func(cfg *types.Config, log *logger.Logger) (gallery.Catalog, error)

func AzureCatalogFactory(cfg *types.Config, log *logger.Logger) (gallery.Catalog, error) {
	credential, err := gallery.NewCredential(cfg.Authentication, cfg.Source.TenantID)
	if err != nil {
		return nil, err
	}
	return gallery.NewAzureCatalog(credential, log), nil
}

type app struct {
	cfgFile    string
	cfg        *types.Config
	configUsed string
	log        *logger.Logger
	newCatalog CatalogFactory
	out        io.Writer
}

type Option func(*app)

func WithCatalogFactory(factory CatalogFactory) Option {
	return func(a *app) { a.newCatalog = factory }
}

func WithOutput(out io.Writer) Option {
	return func(a *app) { a.out = out }
}

// WithLogger replaces the logger built from configuration.
func WithLogger(log *logger.Logger) Option {
	return func(a *app) { a.log = log }
}

// Flags bound to configuration keys. A flag only takes part when the running
// command defines it.
var flagBindings = map[string][]string{
	"language":              {config.KeyLanguage},
	"log-level":             {config.KeyLogLevel},
	"log-format":            {config.KeyLogFormat},
	"dry-run":               {config.KeyDryRun},
	"tenant-id":             {config.KeySourceTenant, config.KeyTargetTenant},
	"source-subscription":   {config.KeySourceSubscription},
	"source-resource-group": {config.KeySourceResourceGroup},
	"source-gallery":        {config.KeySourceGallery},
	"target-subscription":   {config.KeyTargetSubscription},
	"target-resource-group": {config.KeyTargetResourceGroup},
	"target-gallery":        {config.KeyTargetGallery},
	"include-images":        {config.KeyImageIncludes},
	"exclude-images":        {config.KeyImageExcludes},
	"include-versions":      {config.KeyVersionIncludes},
	"exclude-versions":      {config.KeyVersionExcludes},
	"match-mode":            {config.KeyMatchMode},
	"concurrency":           {config.KeyConcurrency},
	"reports-dir":           {config.KeyReportsDir},
}

func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{
		newCatalog: AzureCatalogFactory,
		out:        os.Stdout,
	}
	for _, opt := range opts {
		opt(a)
	}
	injectedLogger := a.log

	rootCmd := &cobra.Command{
		Use:   "galleon",
		Short: "Copies Azure Compute Gallery images between galleries",
		Long: `Galleon copies image definitions and image versions from one Azure Compute Gallery
to another, across subscriptions of the same tenant. Existing items are skipped, so a
copy can be repeated safely, and --dry-run shows the plan without changing anything.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(cmd); err != nil {
				return &ExitError{Code: ExitConfigLoad, Err: err}
			}

			a.log = injectedLogger
			if a.log == nil {
				a.log = logger.NewWithConfig(a.cfg)
			}

			if a.configUsed == "" {
				a.log.Debug("config_not_found").Send()
			} else {
				a.log.Debug("config_loaded").Str("file", a.configUsed).Send()
			}

			a.log.Debug("app_started").
				Str("version", Version).
				Str("command", cmd.Name()).
				Str("language", a.cfg.Settings.Language).
				Bool("dry_run", a.cfg.Settings.DryRun).
				Send()
			return nil
		},
	}
	rootCmd.SetOut(a.out)

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "configuration file (default ~/.galleon/config.yaml)")
	rootCmd.PersistentFlags().String("language", "", "message language (en-US, ja-JP)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (console, json)")
	rootCmd.PersistentFlags().Bool("dry-run", false, "plan the copy without changing the target gallery")

	rootCmd.AddCommand(
		newCopyCommand(a),
		newListCommand(a),
		newValidateCommand(a),
		newInitCommand(a),
		newStatusCommand(a),
	)
	return rootCmd
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	loader := config.NewLoader()

	for name, keys := range flagBindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		for _, key := range keys {
			if err := loader.BindFlag(key, flag); err != nil {
				return err
			}
		}
	}

	cfg, err := loader.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.configUsed = loader.ConfigFileUsed()
	return nil
}

func (a *app) context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}

// Execute runs the galleon command line with the Azure catalog.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
