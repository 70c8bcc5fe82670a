package monitor

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ReportFormat represents the output format for reports
type ReportFormat string

const (
	ReportFormatJSON ReportFormat = "json"
	ReportFormatText ReportFormat = "text"
)

// Report summarizes a recorder
type Report struct {
	Duration        time.Duration    `json:"duration"`
	TotalOperations int64            `json:"total_operations"`
	FailedOps       int64            `json:"failed_operations"`
	Operations      []OperationStats `json:"operations"`
}

// NewReport builds a report from the current state of r
func NewReport(r *Recorder) *Report {
	report := &Report{
		Duration:   r.Uptime(),
		Operations: r.Snapshot(),
	}
	for _, op := range report.Operations {
		report.TotalOperations += op.Count
		report.FailedOps += op.Errors
	}
	return report
}

// Format renders the report
func (rep *Report) Format(format ReportFormat) (string, error) {
	switch format {
	case ReportFormatJSON:
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal report: %w", err)
		}
		return string(data) + "\n", nil
	case ReportFormatText, "":
		return rep.formatText(), nil
	default:
		return "", fmt.Errorf("unsupported report format: %s", format)
	}
}

func (rep *Report) formatText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Operations: %d total, %d failed in %s\n",
		rep.TotalOperations, rep.FailedOps, rep.Duration.Round(time.Millisecond))
	if len(rep.Operations) == 0 {
		return b.String()
	}

	fmt.Fprintf(&b, "%-10s %6s %6s %10s %10s %10s\n", "OPERATION", "COUNT", "ERRORS", "AVG", "MIN", "MAX")
	for _, op := range rep.Operations {
		fmt.Fprintf(&b, "%-10s %6d %6d %10s %10s %10s\n",
			op.Operation, op.Count, op.Errors,
			round(op.AvgTime), round(op.MinTime), round(op.MaxTime))
	}
	return b.String()
}

func round(d time.Duration) time.Duration {
	if d > time.Millisecond {
		return d.Round(time.Millisecond)
	}
	return d.Round(time.Microsecond)
}
