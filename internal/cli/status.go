package cli

import (
	"errors"

	"github.com/kevinfinalboss/galleon/internal/reporter"
	"github.com/spf13/cobra"
)

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the summary of the most recent copy run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showStatus()
		},
	}
}

func (a *app) showStatus() error {
	record, path, err := reporter.LatestHistory(a.cfg.Settings.ReportsDir)
	if errors.Is(err, reporter.ErrNoHistory) {
		a.printf("No copy run recorded in %s yet.\n", a.cfg.Settings.ReportsDir)
		return nil
	}
	if err != nil {
		a.log.Error("operation_failed").Str("operation", "status").Err(err).Send()
		return err
	}

	summary := record.Summary
	a.printf("Last run finished %s (%s)\n", summary.EndTime.Local().Format("2006-01-02 15:04:05"), path)

	text, err := reporter.Render(summary)
	if err != nil {
		return err
	}
	a.printf("%s", text)

	if notable := record.Notable(); len(notable) > 0 {
		a.printf("Warnings and errors:\n")
		for _, e := range notable {
			a.printf("  [%s] %s %s\n", e.Level, e.Code, e.Message)
		}
	}

	if record.ReportPath != "" {
		a.printf("HTML report: %s\n", record.ReportPath)
	}

	a.log.Debug("operation_completed").Str("operation", "status").Send()
	return nil
}
