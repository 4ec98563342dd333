package reporter

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kevinfinalboss/galleon/pkg/types"
	"github.com/pterm/pterm"
)

const maxDetailWidth = 120

// ConsoleReporter renders the plan (dry run) and result views as tables.
type ConsoleReporter struct {
	out io.Writer
}

func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

func (c *ConsoleReporter) Print(summary *types.CopySummary) error {
	text, err := Render(summary)
	if err != nil {
		return err
	}
	_, err = io.WriteString(c.out, text)
	return err
}

// Render returns the plan view for dry runs and the result view otherwise.
func Render(summary *types.CopySummary) (string, error) {
	if summary.IsDryRun {
		return RenderPlan(summary)
	}
	return RenderResult(summary)
}

func RenderPlan(summary *types.CopySummary) (string, error) {
	header := fmt.Sprintf("Copy plan %s -> %s\n", summary.Source, summary.Target)

	if len(summary.Operations) == 0 {
		return header + "Nothing to copy: no image definitions matched the filter.\n", nil
	}

	table, err := operationTable(summary, summary.Operations)
	if err != nil {
		return "", err
	}

	counters, err := countersTable(summary)
	if err != nil {
		return "", err
	}

	return header + table + "\n" + counters + "\nNo changes were made (dry run).\n", nil
}

func RenderResult(summary *types.CopySummary) (string, error) {
	header := fmt.Sprintf("Copy result %s -> %s (%s)\n", summary.Source, summary.Target,
		summary.Duration().Round(time.Millisecond))

	counters, err := countersTable(summary)
	if err != nil {
		return "", err
	}
	out := header + counters

	failed := summary.OperationsWith(types.ResultFailed)
	if len(failed) > 0 {
		table, err := operationTable(summary, failed)
		if err != nil {
			return "", err
		}
		out += "\nFailed operations\n" + table
	}
	return out, nil
}

func operationTable(summary *types.CopySummary, operations []types.CopyOperation) (string, error) {
	data := pterm.TableData{{"Kind", "Item", "Status", "Detail"}}
	for _, op := range operations {
		detail := op.SkipReason
		if op.Result == types.ResultFailed {
			detail = op.ErrorMessage
		}
		data = append(data, []string{
			kindLabel(op.Type),
			op.Target(),
			OperationStatusLabel(op, summary.IsDryRun),
			truncate(detail, maxDetailWidth),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

func countersTable(summary *types.CopySummary) (string, error) {
	created := "Created"
	if summary.IsDryRun {
		created = "To create"
	}

	counters := summary.Counters()
	data := pterm.TableData{
		{"", created, "Skipped", "Failed"},
		{"Definitions", strconv.Itoa(counters.Definitions.Created), strconv.Itoa(counters.Definitions.Skipped), strconv.Itoa(counters.Definitions.Failed)},
		{"Versions", strconv.Itoa(counters.Versions.Created), strconv.Itoa(counters.Versions.Skipped), strconv.Itoa(counters.Versions.Failed)},
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
