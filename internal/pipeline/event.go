package pipeline

import (
	"fmt"
	"net/url"

	"github.com/aws/aws-lambda-go/events"

	"github.com/eunmann/s3-file-pipeline/pkg/objstore"
)

// ParseObjectCreated validates an S3 notification and returns the object it
// announces. Only the first record is used; the number of records that were
// ignored is returned so the caller can report it.
func ParseObjectCreated(evt events.S3Event) (ref objstore.Ref, ignored int, err error) {
	if len(evt.Records) == 0 {
		return objstore.Ref{}, 0, fmt.Errorf("%w: no records", ErrInvalidEvent)
	}

	rec := evt.Records[0]
	if rec.S3.Bucket.Name == "" {
		return objstore.Ref{}, 0, fmt.Errorf("%w: records[0].s3.bucket.name is empty", ErrInvalidEvent)
	}
	if rec.S3.Object.Key == "" {
		return objstore.Ref{}, 0, fmt.Errorf("%w: records[0].s3.object.key is empty", ErrInvalidEvent)
	}

	// S3 notifications carry form-encoded keys ("+" for space).
	key, err := url.QueryUnescape(rec.S3.Object.Key)
	if err != nil {
		return objstore.Ref{}, 0, fmt.Errorf("%w: decode key %q: %v", ErrInvalidEvent, rec.S3.Object.Key, err)
	}

	return objstore.Ref{Bucket: rec.S3.Bucket.Name, Key: key}, len(evt.Records) - 1, nil
}
