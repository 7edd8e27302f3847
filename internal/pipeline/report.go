package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eunmann/s3-file-pipeline/pkg/metastore"
	"github.com/eunmann/s3-file-pipeline/pkg/objstore"
)

// Key prefixes of objects the pipeline writes itself.
const (
	ReportPrefix      = "reports/"
	DailyReportPrefix = "daily-reports/"
)

// NotificationSubject is the subject of the daily SNS message.
const NotificationSubject = "Daily Pipeline Report Generated"

const (
	timestampLayout = "2006-01-02T15:04:05.000000Z07:00"
	noFilesLine     = "No files processed today."
)

// IsGenerated reports whether key belongs to the pipeline's own output.
// Processing such keys would re-trigger the pipeline on its own reports.
func IsGenerated(key string) bool {
	return strings.HasPrefix(key, ReportPrefix) || strings.HasPrefix(key, DailyReportPrefix)
}

// CountLines counts "\n"-delimited lines. A trailing newline does not add
// an empty line and empty content has no lines.
func CountLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}

// FileReportKey returns the key of the per-file report for an input key.
func FileReportKey(key string) string {
	return ReportPrefix + key + "-summary.txt"
}

// DailyReportKey returns the key of the daily report for the UTC date of at.
func DailyReportKey(at time.Time) string {
	return DailyReportPrefix + "report-" + at.UTC().Format(time.DateOnly) + ".txt"
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// RenderFileReport renders the per-file summary for a stored record.
func RenderFileReport(rec metastore.FileRecord) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("File Processing Report\n")
	b.WriteString("----------------------\n")
	fmt.Fprintf(&b, "File Name      : %s\n", rec.FileName)
	fmt.Fprintf(&b, "Total Records  : %d\n", rec.RecordCount)
	fmt.Fprintf(&b, "Processed Time : %s\n", formatTimestamp(rec.ProcessedAt))
	b.WriteString("\n")
	b.WriteString("Status: SUCCESS\n")
	return b.String()
}

// RenderDailyReport renders the daily summary. Records are listed in the
// order given.
func RenderDailyReport(records []metastore.FileRecord, at time.Time) string {
	var b strings.Builder
	b.WriteString("Daily Data Processing Report\n")
	b.WriteString("====================================\n")
	fmt.Fprintf(&b, "Generated At: %s\n\n", formatTimestamp(at))

	if len(records) == 0 {
		b.WriteString(noFilesLine + "\n")
		return b.String()
	}

	b.WriteString("Processed Files Summary:\n\n")
	for _, rec := range records {
		b.WriteString("- File: " + rec.FileName + ", Records: " + strconv.Itoa(rec.RecordCount) + "\n")
	}
	return b.String()
}

// NotificationMessage is the body of the daily SNS message.
func NotificationMessage(report objstore.Ref) string {
	return "Daily report generated successfully.\nLocation: " + report.URI()
}
