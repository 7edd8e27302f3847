package pipeline

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// Failure kinds. Every stage failure wraps exactly one of these.
var (
	// ErrInvalidEvent indicates a trigger event missing a bucket or key.
	ErrInvalidEvent = errors.New("invalid trigger event")
	// ErrRead indicates the input object could not be fetched.
	ErrRead = errors.New("read object failed")
	// ErrPersist indicates the file record could not be stored.
	ErrPersist = errors.New("persist metadata failed")
	// ErrReportWrite indicates a per-file or daily report could not be stored.
	ErrReportWrite = errors.New("write report failed")
	// ErrScan indicates the metadata table could not be read.
	ErrScan = errors.New("scan metadata failed")
	// ErrPublish indicates the daily notification could not be sent.
	ErrPublish = errors.New("publish notification failed")
)

// Stage names the step of a handler that failed. It is logged as the
// "stage" field.
type Stage string

const (
	StageEvent   Stage = "event"
	StageRead    Stage = "read"
	StagePersist Stage = "persist"
	StageReport  Stage = "report_write"
	StageScan    Stage = "scan"
	StagePublish Stage = "publish"
)

// StageError ties a failure to the stage it happened in and its kind.
// errors.Is matches both the kind and the underlying cause.
type StageError struct {
	Stage Stage
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// StageOf returns the stage of a *StageError anywhere in err's chain.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

// awsErrorCode extracts the service error code (e.g. NoSuchKey,
// ResourceNotFoundException) when err came from an AWS API call.
func awsErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
