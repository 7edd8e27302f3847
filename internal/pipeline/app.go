// Package pipeline implements the two handlers of the file pipeline: the
// ingestion processor run for every new object and the daily aggregation
// reporter run on a schedule.
//
// Both handlers share one failure policy. Each stage returns an explicit
// *StageError; the stage logs it once with its own marker, and the Lambda
// entry points fold it into a statusCode 500 result so no error escapes.
package pipeline

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"

	"github.com/eunmann/s3-file-pipeline/internal/logctx"
	"github.com/eunmann/s3-file-pipeline/pkg/metastore"
	"github.com/eunmann/s3-file-pipeline/pkg/objstore"
)

// ObjectStore reads inputs and writes reports.
type ObjectStore interface {
	GetText(ctx context.Context, ref objstore.Ref) (string, error)
	PutText(ctx context.Context, ref objstore.Ref, body string) error
}

// MetadataStore holds one FileRecord per file name.
type MetadataStore interface {
	Put(ctx context.Context, rec metastore.FileRecord) error
	Scan(ctx context.Context) ([]metastore.FileRecord, error)
}

// Notifier publishes the daily notification.
type Notifier interface {
	Publish(ctx context.Context, subject, message string) (string, error)
}

// Deps are the collaborators an App is built from.
type Deps struct {
	Objects  ObjectStore
	Metadata MetadataStore
	// Notifier may be nil in processes that only ingest.
	Notifier Notifier
	// ReportBucket receives daily reports. Per-file reports go to the
	// bucket of their input.
	ReportBucket string
	// Now defaults to time.Now.
	Now func() time.Time
}

// App is the application context shared by every invocation in a process.
// It holds no per-invocation state and is safe for concurrent use.
type App struct {
	objects      ObjectStore
	metadata     MetadataStore
	notifier     Notifier
	reportBucket string
	now          func() time.Time
}

// New creates an App from its collaborators.
func New(d Deps) *App {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &App{
		objects:      d.Objects,
		metadata:     d.Metadata,
		notifier:     d.Notifier,
		reportBucket: d.ReportBucket,
		now:          now,
	}
}

// fail logs a stage failure once with its marker and returns it as a
// *StageError.
func fail(ctx context.Context, stage Stage, kind error, err error, marker string) error {
	logger := logctx.FromContext(ctx)
	ev := logger.Error().Err(err).Str("stage", string(stage))
	if code := awsErrorCode(err); code != "" {
		ev = ev.Str("aws_error_code", code)
	}
	ev.Msg(marker)
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// InvocationContext tags the context logger with the handler name and an
// invocation id: the Lambda request id when running in Lambda, else a
// fresh UUID. The Handle* entry points call it themselves; callers of
// Process and GenerateDailyReport call it once per run.
func InvocationContext(ctx context.Context, handler string) context.Context {
	var id string
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		id = lc.AwsRequestID
	}
	if id == "" {
		id = uuid.NewString()
	}
	ctx = logctx.WithStr(ctx, "handler", handler)
	return logctx.WithStr(ctx, "invocation_id", id)
}
