package reporter

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kevinfinalboss/galleon/internal/logger"
	"github.com/kevinfinalboss/galleon/pkg/types"
)

const timestampLayout = "2006-01-02_15-04-05"

type HTMLReporter struct {
	logger     *logger.Logger
	reportsDir string
}

func NewHTMLReporter(logger *logger.Logger, reportsDir string) *HTMLReporter {
	return &HTMLReporter{
		logger:     logger,
		reportsDir: reportsDir,
	}
}

// ReportName builds galleon-{plan|run}-<timestamp>.<ext> for a summary.
func ReportName(summary *types.CopySummary, ext string) string {
	kind := "run"
	if summary.IsDryRun {
		kind = "plan"
	}
	return fmt.Sprintf("galleon-%s-%s.%s", kind, summary.EndTime.Format(timestampLayout), ext)
}

func (r *HTMLReporter) GenerateReport(summary *types.CopySummary) (string, error) {
	if err := os.MkdirAll(r.reportsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	reportPath := filepath.Join(r.reportsDir, ReportName(summary, "html"))
	data := BuildReportData(summary)

	htmlContent, err := r.generateHTML(data)
	if err != nil {
		return "", fmt.Errorf("failed to render HTML report: %w", err)
	}

	if err := os.WriteFile(reportPath, []byte(htmlContent), 0644); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	r.logger.Info("html_report_generated").
		Str("file", reportPath).
		Str("mode", getExecutionMode(summary.IsDryRun)).
		Int("operations", len(summary.Operations)).
		Send()

	return reportPath, nil
}

func BuildReportData(summary *types.CopySummary) types.ReportData {
	return types.ReportData{
		Title:         getReportTitle(summary.IsDryRun),
		Timestamp:     summary.EndTime.Format("2006-01-02 15:04:05"),
		ExecutionMode: getExecutionMode(summary.IsDryRun),
		Summary:       summary,
		Source:        summary.Source.String(),
		Target:        summary.Target.String(),
		Duration:      summary.Duration().Round(time.Millisecond).String(),
		Statistics:    calculateStatistics(summary),
		Operations:    buildOperationList(summary),
		HasFailures:   summary.FailedOperations > 0,
		HasSkipped:    len(summary.OperationsWith(types.ResultSkipped)) > 0,
	}
}

func calculateStatistics(summary *types.CopySummary) types.ReportStatistics {
	counters := summary.Counters()
	total := float64(len(summary.Operations))
	if total == 0 {
		total = 1
	}

	return types.ReportStatistics{
		DefinitionsAttempted: counters.Definitions.Attempted(),
		VersionsAttempted:    counters.Versions.Attempted(),
		SuccessRate:          float64(counters.Definitions.Created+counters.Versions.Created) / total * 100,
		FailureRate:          float64(counters.FailedOperations()) / total * 100,
		SkippedRate:          float64(counters.Definitions.Skipped+counters.Versions.Skipped) / total * 100,
	}
}

func buildOperationList(summary *types.CopySummary) []types.OperationStatus {
	var operations []types.OperationStatus

	for _, op := range summary.Operations {
		status := OperationStatusLabel(op, summary.IsDryRun)
		statusClass := "success"
		detail := ""

		switch op.Result {
		case types.ResultSkipped:
			statusClass = "warning"
			detail = op.SkipReason
		case types.ResultFailed:
			statusClass = "danger"
			detail = op.ErrorMessage
		}

		operations = append(operations, types.OperationStatus{
			OperationID: op.OperationID,
			Kind:        kindLabel(op.Type),
			Item:        op.Target(),
			Status:      status,
			StatusClass: statusClass,
			Detail:      detail,
		})
	}

	return operations
}

// OperationStatusLabel names a result the way the plan and result views do.
func OperationStatusLabel(op types.CopyOperation, dryRun bool) string {
	switch op.Result {
	case types.ResultSuccess:
		if dryRun {
			return "Would create"
		}
		return "Created"
	case types.ResultSkipped:
		return "Skipped"
	default:
		return "Failed"
	}
}

func kindLabel(t types.OperationType) string {
	if t == types.OperationCreateImageVersion {
		return "Version"
	}
	return "Definition"
}

func (r *HTMLReporter) generateHTML(data types.ReportData) (string, error) {
	tmpl := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - {{.Timestamp}}</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background: #f4f6f9; color: #333; line-height: 1.6; }
        .container { max-width: 1200px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #0b5cab 0%, #2f8fdd 100%); color: white; padding: 30px; border-radius: 10px; margin-bottom: 30px; }
        .header h1 { font-size: 2.2rem; margin-bottom: 10px; }
        .header p { font-size: 1.05rem; opacity: 0.9; }
        .stats-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(220px, 1fr)); gap: 20px; margin-bottom: 30px; }
        .stat-card { background: white; padding: 25px; border-radius: 10px; box-shadow: 0 5px 15px rgba(0,0,0,0.08); border-left: 5px solid #0b5cab; }
        .stat-card h3 { color: #0b5cab; font-size: 2rem; margin-bottom: 5px; }
        .stat-card p { color: #666; font-weight: 500; }
        .section { background: white; margin-bottom: 30px; border-radius: 10px; overflow: hidden; box-shadow: 0 5px 15px rgba(0,0,0,0.08); }
        .section-header { background: #0b5cab; color: white; padding: 20px; font-size: 1.2rem; font-weight: 600; }
        .section-content { padding: 25px; }
        .table { width: 100%; border-collapse: collapse; margin-top: 10px; }
        .table th, .table td { padding: 12px; text-align: left; border-bottom: 1px solid #eee; }
        .table th { background: #f8f9fa; font-weight: 600; }
        .badge { padding: 4px 12px; border-radius: 20px; font-size: 0.85rem; font-weight: 500; }
        .badge.success { background: #d4edda; color: #155724; }
        .badge.warning { background: #fff3cd; color: #856404; }
        .badge.danger { background: #f8d7da; color: #721c24; }
        .progress-bar { width: 100%; height: 8px; background: #eee; border-radius: 4px; overflow: hidden; }
        .progress-fill { height: 100%; }
        .progress-success { background: #28a745; }
        .progress-warning { background: #ffc107; }
        .progress-danger { background: #dc3545; }
        .config-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(260px, 1fr)); gap: 15px; }
        .config-item { padding: 15px; background: #f8f9fa; border-radius: 8px; border-left: 3px solid #0b5cab; word-break: break-all; }
        .config-item strong { color: #0b5cab; }
        .footer { text-align: center; padding: 30px; color: #666; border-top: 1px solid #eee; margin-top: 30px; }
        .mono { font-family: Consolas, monospace; font-size: 0.85rem; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.Title}}</h1>
            <p>Generated {{.Timestamp}} | Mode: {{.ExecutionMode}} | Duration: {{.Duration}}</p>
        </div>

        <div class="stats-grid">
            <div class="stat-card">
                <h3>{{.Summary.CreatedImageDefinitions}}</h3>
                <p>Image definitions {{if .Summary.IsDryRun}}to create{{else}}created{{end}}</p>
            </div>
            <div class="stat-card">
                <h3>{{.Summary.CreatedImageVersions}}</h3>
                <p>Image versions {{if .Summary.IsDryRun}}to create{{else}}created{{end}}</p>
            </div>
            <div class="stat-card">
                <h3>{{.Summary.SkippedImageVersions}}</h3>
                <p>Image versions skipped</p>
            </div>
            <div class="stat-card">
                <h3>{{.Summary.FailedOperations}}</h3>
                <p>Failed operations</p>
            </div>
        </div>

        <div class="section">
            <div class="section-header">Statistics</div>
            <div class="section-content">
                <div style="margin-bottom: 20px;">
                    <div style="display: flex; justify-content: space-between; margin-bottom: 5px;">
                        <span>Success rate</span>
                        <span>{{printf "%.1f%%" .Statistics.SuccessRate}}</span>
                    </div>
                    <div class="progress-bar">
                        <div class="progress-fill progress-success" style="width: {{.Statistics.SuccessRate}}%"></div>
                    </div>
                </div>
                {{if .HasSkipped}}
                <div style="margin-bottom: 20px;">
                    <div style="display: flex; justify-content: space-between; margin-bottom: 5px;">
                        <span>Skipped</span>
                        <span>{{printf "%.1f%%" .Statistics.SkippedRate}}</span>
                    </div>
                    <div class="progress-bar">
                        <div class="progress-fill progress-warning" style="width: {{.Statistics.SkippedRate}}%"></div>
                    </div>
                </div>
                {{end}}
                {{if .HasFailures}}
                <div style="margin-bottom: 20px;">
                    <div style="display: flex; justify-content: space-between; margin-bottom: 5px;">
                        <span>Failures</span>
                        <span>{{printf "%.1f%%" .Statistics.FailureRate}}</span>
                    </div>
                    <div class="progress-bar">
                        <div class="progress-fill progress-danger" style="width: {{.Statistics.FailureRate}}%"></div>
                    </div>
                </div>
                {{end}}
            </div>
        </div>

        <div class="section">
            <div class="section-header">Run</div>
            <div class="section-content">
                <div class="config-grid">
                    <div class="config-item"><strong>Source:</strong><br>{{.Source}}</div>
                    <div class="config-item"><strong>Target:</strong><br>{{.Target}}</div>
                    <div class="config-item"><strong>Definitions attempted:</strong><br>{{.Statistics.DefinitionsAttempted}}</div>
                    <div class="config-item"><strong>Versions attempted:</strong><br>{{.Statistics.VersionsAttempted}}</div>
                </div>
            </div>
        </div>

        <div class="section">
            <div class="section-header">Operations</div>
            <div class="section-content">
                {{if .Operations}}
                <table class="table">
                    <thead>
                        <tr>
                            <th>Kind</th>
                            <th>Item</th>
                            <th>Status</th>
                            <th>Operation ID</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Operations}}
                        <tr>
                            <td>{{.Kind}}</td>
                            <td><strong>{{.Item}}</strong></td>
                            <td><span class="badge {{.StatusClass}}">{{.Status}}</span></td>
                            <td class="mono">{{.OperationID}}</td>
                        </tr>
                        {{if .Detail}}
                        <tr style="background: #fffaf0;">
                            <td colspan="4" style="font-size: 0.9rem; color: #856404;">{{.Detail}}</td>
                        </tr>
                        {{end}}
                        {{end}}
                    </tbody>
                </table>
                {{else}}
                <p>No image definitions or versions matched the filter.</p>
                {{end}}
            </div>
        </div>

        <div class="footer">
            <p><strong>galleon</strong> | Azure Compute Gallery copy report</p>
        </div>
    </div>
</body>
</html>`

	t, err := template.New("report").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func getReportTitle(isDryRun bool) string {
	if isDryRun {
		return "Galleon - Copy Plan"
	}
	return "Galleon - Copy Report"
}

func getExecutionMode(isDryRun bool) string {
	if isDryRun {
		return "Plan (dry run)"
	}
	return "Live"
}
