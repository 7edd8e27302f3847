package pipeline

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/eunmann/s3-file-pipeline/internal/logctx"
	"github.com/eunmann/s3-file-pipeline/pkg/objstore"
)

// Daily report result messages.
const (
	MsgReportGenerated = "Daily report generated and notification sent"
	MsgScanFailed      = "Failed to scan metadata"
	MsgDailyFailed     = "Failed to save daily report"
	MsgPublishFailed   = "Failed to send notification"
)

var errNoNotifier = errors.New("no notification topic configured")

// ReportResult is returned for every scheduled run.
type ReportResult struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Report     string `json:"report,omitempty"`
}

func reportFailure(msg string) ReportResult {
	return ReportResult{StatusCode: http.StatusInternalServerError, Message: msg}
}

// HandleSchedule is the Lambda entry point of the aggregation reporter.
// The event carries no input. Like HandleObjectCreated it never returns an
// error.
func (a *App) HandleSchedule(ctx context.Context, evt events.CloudWatchEvent) (ReportResult, error) {
	ctx = InvocationContext(ctx, "report")
	if evt.ID != "" {
		ctx = logctx.WithStr(ctx, "schedule_event_id", evt.ID)
	}

	// Failures are logged at the failing stage and carried by the result.
	res, _ := a.GenerateDailyReport(ctx)
	return res, nil
}

// GenerateDailyReport scans every file record, writes the daily report and
// publishes one notification pointing at it.
func (a *App) GenerateDailyReport(ctx context.Context) (ReportResult, error) {
	log := logctx.FromContext(ctx)

	records, err := a.metadata.Scan(ctx)
	if err != nil {
		return reportFailure(MsgScanFailed), fail(ctx, StageScan, ErrScan, err, "error scanning metadata")
	}

	at := a.now().UTC()
	report := objstore.Ref{Bucket: a.reportBucket, Key: DailyReportKey(at)}
	if err := a.objects.PutText(ctx, report, RenderDailyReport(records, at)); err != nil {
		return reportFailure(MsgDailyFailed), fail(ctx, StageReport, ErrReportWrite, err, "error saving daily report")
	}
	log.Info().Int("files", len(records)).Str("report", report.Key).Msg("daily report saved")

	if a.notifier == nil {
		return reportFailure(MsgPublishFailed), fail(ctx, StagePublish, ErrPublish, errNoNotifier, "error sending notification")
	}
	msgID, err := a.notifier.Publish(ctx, NotificationSubject, NotificationMessage(report))
	if err != nil {
		return reportFailure(MsgPublishFailed), fail(ctx, StagePublish, ErrPublish, err, "error sending notification")
	}
	log.Info().Str("message_id", msgID).Msg("notification sent")

	return ReportResult{
		StatusCode: http.StatusOK,
		Message:    MsgReportGenerated,
		Report:     report.Key,
	}, nil
}
