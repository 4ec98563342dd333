package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/kevinfinalboss/galleon/internal/config"
	"github.com/kevinfinalboss/galleon/internal/copier"
	"github.com/kevinfinalboss/galleon/internal/events"
	"github.com/kevinfinalboss/galleon/internal/filter"
	"github.com/kevinfinalboss/galleon/internal/gallery"
	"github.com/kevinfinalboss/galleon/internal/reporter"
	"github.com/kevinfinalboss/galleon/internal/webhook"
	"github.com/kevinfinalboss/galleon/pkg/types"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newCopyCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy image definitions and versions into the target gallery",
		Long: `Copies every image definition and image version of the source gallery that passes
the filter into the target gallery. Items that already exist in the target are skipped
and versions replicated with customer-managed keys are never copied.`,
		Example: `  galleon copy --dry-run
  galleon copy --include-images ubuntu,rhel --exclude-versions 0.
  galleon copy --source-gallery gal_prod --target-gallery gal_dr --concurrency 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCopy(a.context(cmd))
		},
	}

	flags := cmd.Flags()
	flags.String("tenant-id", "", "tenant of both galleries")
	flags.String("source-subscription", "", "source subscription id")
	flags.String("source-resource-group", "", "source resource group")
	flags.String("source-gallery", "", "source gallery name")
	flags.String("target-subscription", "", "target subscription id")
	flags.String("target-resource-group", "", "target resource group")
	flags.String("target-gallery", "", "target gallery name")
	flags.StringSlice("include-images", nil, "image definition patterns to include (comma separated)")
	flags.StringSlice("exclude-images", nil, "image definition patterns to exclude (comma separated)")
	flags.StringSlice("include-versions", nil, "image version patterns to include (comma separated)")
	flags.StringSlice("exclude-versions", nil, "image version patterns to exclude (comma separated)")
	flags.String("match-mode", "", "pattern matching mode (prefix, contains)")
	flags.Int("concurrency", 0, "image definitions processed in parallel")
	flags.String("reports-dir", "", "directory for HTML and JSON reports")

	return cmd
}

func (a *app) runCopy(ctx context.Context) error {
	cfg := a.cfg

	if errs := config.Validate(cfg); len(errs) > 0 {
		a.printValidationErrors(errs.ToAggregate().Errors())
		a.log.Error("config_invalid").Int("errors", len(errs)).Send()
		return &ExitError{Code: ExitValidation, Err: errs.ToAggregate()}
	}

	catalog, err := a.newCatalog(cfg, a.log)
	if err != nil {
		return a.unexpected(ctx, nil, "authentication", err)
	}

	notifier := a.notifier()

	source, err := catalog.GetGallery(ctx, cfg.Source)
	if err != nil {
		return a.unexpected(ctx, notifier, "resolve source gallery", fmt.Errorf("failed to resolve source gallery %s: %w", cfg.Source, err))
	}
	target, err := catalog.GetGallery(ctx, cfg.Target)
	if err != nil {
		return a.unexpected(ctx, notifier, "resolve target gallery", fmt.Errorf("failed to resolve target gallery %s: %w", cfg.Target, err))
	}

	if notifier != nil {
		if err := notifier.SendCopyStart(ctx, cfg.Source, cfg.Target, cfg.Settings.DryRun); err != nil {
			a.log.Warn("discord_webhook_failed").Err(err).Send()
		}
	}

	trail := events.NewMemoryRecorder()
	recorder := events.Multi{events.NewLogRecorder(a.log), trail}
	engine := copier.NewEngine(catalog, catalog, a.log, recorder,
		copier.WithConcurrency(cfg.Settings.Concurrency))

	filterCriteria := cfg.Filter
	summary, err := engine.CopyAll(ctx, source, target, &filterCriteria, cfg.Settings.DryRun)
	if err != nil {
		if errors.Is(err, filter.ErrInvalidArgument) {
			a.log.Error("config_invalid").Err(err).Send()
			return &ExitError{Code: ExitValidation, Err: err}
		}
		return a.unexpected(ctx, notifier, "copy", err)
	}

	if err := reporter.NewConsoleReporter(a.out).Print(summary); err != nil {
		a.log.Warn("report_failed").Err(err).Send()
	}
	a.writeReports(summary, trail.Events())

	if notifier != nil {
		if err := notifier.SendCopyComplete(ctx, summary); err != nil {
			a.log.Warn("discord_webhook_failed").Err(err).Send()
		}
	}

	if code := summary.ExitCode(); code != ExitOK {
		a.log.Error("operation_failed").
			Str("operation", "copy").
			Int("failed_operations", summary.FailedOperations).
			Send()
		return &ExitError{Code: code, Err: fmt.Errorf("%d copy operations failed", summary.FailedOperations)}
	}

	a.log.Info("operation_completed").Str("operation", "copy").Send()
	return nil
}

func (a *app) writeReports(summary *types.CopySummary, trail []events.Event) {
	dir := a.cfg.Settings.ReportsDir

	record := reporter.HistoryRecord{Summary: summary, Events: historyEvents(trail)}
	if a.cfg.Settings.HTMLReport {
		path, err := reporter.NewHTMLReporter(a.log, dir).GenerateReport(summary)
		if err != nil {
			a.log.Warn("report_failed").Str("format", "html").Err(err).Send()
		} else {
			record.ReportPath = path
			a.printf("HTML report: %s\n", path)
		}
	}

	path, err := reporter.SaveHistory(dir, record)
	if err != nil {
		a.log.Warn("report_failed").Str("format", "json").Err(err).Send()
		return
	}
	a.log.Debug("history_saved").Str("file", path).Send()
}

// historyEvents keeps info and above; filtered-out decisions stay in the log.
func historyEvents(trail []events.Event) []reporter.HistoryEvent {
	var out []reporter.HistoryEvent
	for _, e := range trail {
		if e.Level < zerolog.InfoLevel {
			continue
		}
		out = append(out, reporter.HistoryEvent{
			Time:          e.Time,
			Level:         e.Level.String(),
			Code:          string(e.Code),
			CorrelationID: e.CorrelationID,
			Message:       e.Message,
		})
	}
	return out
}

func (a *app) notifier() *webhook.DiscordWebhook {
	discord := a.cfg.Webhooks.Discord
	if !discord.Enabled || discord.URL == "" {
		return nil
	}
	return webhook.NewDiscordWebhook(discord, a.log)
}

// unexpected reports a failure that stopped the run before a summary existed.
func (a *app) unexpected(ctx context.Context, notifier *webhook.DiscordWebhook, operation string, err error) error {
	a.log.Error("operation_failed").
		Str("operation", operation).
		Err(err).
		Send()

	if gallery.IsNotFound(err) {
		a.printf("Not found: %v\n", err)
	}

	if notifier != nil {
		if sendErr := notifier.SendError(ctx, err.Error(), operation); sendErr != nil {
			a.log.Warn("discord_webhook_failed").Err(sendErr).Send()
		}
	}
	return &ExitError{Code: ExitUnexpected, Err: err}
}

func (a *app) printValidationErrors(errs []error) {
	a.printf("Configuration is invalid:\n")
	for _, err := range errs {
		a.printf("  - %v\n", err)
	}
}
