package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/eunmann/s3-file-pipeline/pkg/metastore"
	"github.com/eunmann/s3-file-pipeline/pkg/objstore"
)

// memObjects is an in-memory object store keyed by bucket/key.
type memObjects struct {
	mu      sync.Mutex
	objects map[objstore.Ref]string
	reads   int
	writes  int
	getErr  error
	putErr  error
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[objstore.Ref]string{}}
}

func (m *memObjects) GetText(_ context.Context, ref objstore.Ref) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.getErr != nil {
		return "", m.getErr
	}
	body, ok := m.objects[ref]
	if !ok {
		return "", errors.New("NoSuchKey")
	}
	return body, nil
}

func (m *memObjects) PutText(_ context.Context, ref objstore.Ref, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[ref] = body
	return nil
}

// memMetadata keeps records in insertion order, overwriting by FileName.
type memMetadata struct {
	mu      sync.Mutex
	order   []string
	records map[string]metastore.FileRecord
	puts    int
	putErr  error
	scanErr error
}

func newMemMetadata(recs ...metastore.FileRecord) *memMetadata {
	m := &memMetadata{records: map[string]metastore.FileRecord{}}
	for _, r := range recs {
		m.store(r)
	}
	return m
}

func (m *memMetadata) store(rec metastore.FileRecord) {
	if _, ok := m.records[rec.FileName]; !ok {
		m.order = append(m.order, rec.FileName)
	}
	m.records[rec.FileName] = rec
}

func (m *memMetadata) Put(_ context.Context, rec metastore.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.store(rec)
	return nil
}

func (m *memMetadata) Scan(context.Context) ([]metastore.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	out := make([]metastore.FileRecord, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.records[name])
	}
	return out, nil
}

type publishCall struct {
	subject string
	message string
}

type memNotifier struct {
	calls []publishCall
	err   error
}

func (n *memNotifier) Publish(_ context.Context, subject, message string) (string, error) {
	if n.err != nil {
		return "", n.err
	}
	n.calls = append(n.calls, publishCall{subject: subject, message: message})
	return "msg-1", nil
}

// fixedClock returns the configured times in order, repeating the last one.
type fixedClock struct {
	mu    sync.Mutex
	times []time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.times[0]
	if len(c.times) > 1 {
		c.times = c.times[1:]
	}
	return t
}

var testNow = time.Date(2026, 10, 18, 9, 30, 15, 123456000, time.UTC)

type harness struct {
	objects  *memObjects
	metadata *memMetadata
	notifier *memNotifier
	app      *App
}

func newHarness(recs ...metastore.FileRecord) *harness {
	h := &harness{
		objects:  newMemObjects(),
		metadata: newMemMetadata(recs...),
		notifier: &memNotifier{},
	}
	h.app = New(Deps{
		Objects:      h.objects,
		Metadata:     h.metadata,
		Notifier:     h.notifier,
		ReportBucket: "pipeline-bucket",
		Now:          func() time.Time { return testNow },
	})
	return h
}
