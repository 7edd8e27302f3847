package pipeline

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/eunmann/s3-file-pipeline/internal/logctx"
	"github.com/eunmann/s3-file-pipeline/pkg/metastore"
	"github.com/eunmann/s3-file-pipeline/pkg/objstore"
)

// Ingestion result messages.
const (
	MsgSkipped       = "Skipped report file"
	MsgProcessed     = "File processed successfully"
	MsgInvalidEvent  = "Invalid event"
	MsgReadFailed    = "Failed to read file"
	MsgPersistFailed = "Failed to write metadata"
	MsgReportFailed  = "Failed to save report"
)

// IngestResult is returned for every object-created event.
type IngestResult struct {
	StatusCode     int    `json:"statusCode"`
	Message        string `json:"message"`
	InputFile      string `json:"input_file,omitempty"`
	TotalRecords   *int   `json:"total_records,omitempty"`
	ReportLocation string `json:"report_location,omitempty"`
}

func ingestFailure(msg string) IngestResult {
	return IngestResult{StatusCode: http.StatusInternalServerError, Message: msg}
}

// HandleObjectCreated is the Lambda entry point of the ingestion processor.
// It never returns an error: every failure is reported as a statusCode 500
// result.
func (a *App) HandleObjectCreated(ctx context.Context, evt events.S3Event) (IngestResult, error) {
	ctx = InvocationContext(ctx, "ingest")

	ref, ignored, err := ParseObjectCreated(evt)
	if err != nil {
		// err already wraps ErrInvalidEvent.
		logger := logctx.FromContext(ctx)
		logger.Error().Err(err).Str("stage", string(StageEvent)).Msg("rejecting trigger event")
		return ingestFailure(MsgInvalidEvent), nil
	}

	ctx = logctx.WithStr(ctx, "bucket", ref.Bucket)
	ctx = logctx.WithStr(ctx, "key", ref.Key)
	if ignored > 0 {
		logger := logctx.FromContext(ctx)
		logger.Warn().Int("ignored_records", ignored).Msg("event carries more than one record, only the first is processed")
	}

	// Failures are logged at the failing stage and carried by the result.
	res, _ := a.Process(ctx, ref)
	return res, nil
}

// Process runs the ingestion stages for one object: guard, fetch, count,
// persist, report. Stages run once each, in order. A persist failure stops
// before the report is written; a report failure leaves the committed
// record in place.
func (a *App) Process(ctx context.Context, ref objstore.Ref) (IngestResult, error) {
	log := logctx.FromContext(ctx)

	if IsGenerated(ref.Key) {
		log.Info().Msg("skipping generated report to avoid recursive processing")
		return IngestResult{StatusCode: http.StatusOK, Message: MsgSkipped}, nil
	}

	log.Info().Msg("processing new object")
	start := time.Now()

	content, err := a.objects.GetText(ctx, ref)
	if err != nil {
		return ingestFailure(MsgReadFailed), fail(ctx, StageRead, ErrRead, err, "error reading object")
	}

	count := CountLines(content)
	log.Debug().Int("bytes", len(content)).Int("records", count).Msg("counted records")

	rec := metastore.FileRecord{
		FileName:    ref.Key,
		RecordCount: count,
		ProcessedAt: a.now().UTC(),
	}
	if err := a.metadata.Put(ctx, rec); err != nil {
		return ingestFailure(MsgPersistFailed), fail(ctx, StagePersist, ErrPersist, err, "error writing metadata")
	}

	report := objstore.Ref{Bucket: ref.Bucket, Key: FileReportKey(ref.Key)}
	if err := a.objects.PutText(ctx, report, RenderFileReport(rec)); err != nil {
		return ingestFailure(MsgReportFailed), fail(ctx, StageReport, ErrReportWrite, err, "error saving file report")
	}

	log.Info().
		Int("records", count).
		Str("report", report.Key).
		Dur("elapsed", time.Since(start)).
		Msg("object processed")

	return IngestResult{
		StatusCode:     http.StatusOK,
		Message:        MsgProcessed,
		InputFile:      ref.Key,
		TotalRecords:   &count,
		ReportLocation: report.Key,
	}, nil
}
