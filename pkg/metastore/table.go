// Package metastore keeps one FileRecord per processed file in DynamoDB.
package metastore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// localTimestampLayout is an ISO-8601 timestamp without a UTC offset, as
// written by older producers sharing the table. It is read as UTC.
const localTimestampLayout = "2006-01-02T15:04:05.999999999"

// FileRecord is the metadata kept for a processed object. The DynamoDB
// attribute names are part of the table's contract with the reporter.
type FileRecord struct {
	FileName    string    `dynamodbav:"FileName"`
	RecordCount int       `dynamodbav:"Records"`
	ProcessedAt time.Time `dynamodbav:"ProcessedAt"`
}

// UnmarshalDynamoDBAttributeValue decodes an item leniently: a ProcessedAt
// that is missing or in an unknown format leaves the zero time instead of
// failing the whole scan.
func (r *FileRecord) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	m, ok := av.(*types.AttributeValueMemberM)
	if !ok {
		return fmt.Errorf("file record: expected map attribute, got %T", av)
	}

	var base struct {
		FileName    string `dynamodbav:"FileName"`
		RecordCount int    `dynamodbav:"Records"`
	}
	if err := attributevalue.UnmarshalMap(m.Value, &base); err != nil {
		return err
	}

	r.FileName = base.FileName
	r.RecordCount = base.RecordCount
	r.ProcessedAt = time.Time{}
	if s, ok := m.Value["ProcessedAt"].(*types.AttributeValueMemberS); ok {
		r.ProcessedAt = parseTimestamp(s.Value)
	}
	return nil
}

func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	if t, err := time.ParseInLocation(localTimestampLayout, s, time.UTC); err == nil {
		return t
	}
	return time.Time{}
}

// API is the subset of the DynamoDB client used by Table. *dynamodb.Client satisfies it.
type API interface {
	dynamodb.ScanAPIClient
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Table reads and writes FileRecords in one DynamoDB table keyed by FileName.
type Table struct {
	api  API
	name string
}

// NewTableWithConfig creates a table handle with a custom AWS config.
func NewTableWithConfig(cfg aws.Config, name string) *Table {
	return NewTable(dynamodb.NewFromConfig(cfg), name)
}

// NewTable wraps an existing DynamoDB API client.
func NewTable(api API, name string) *Table {
	return &Table{api: api, name: name}
}

// Put stores rec, replacing any existing record with the same FileName.
func (t *Table) Put(ctx context.Context, rec FileRecord) error {
	if rec.FileName == "" {
		return errors.New("put file record: empty file name")
	}
	if rec.RecordCount < 0 {
		return fmt.Errorf("put file record %q: negative record count %d", rec.FileName, rec.RecordCount)
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal file record %q: %w", rec.FileName, err)
	}

	_, err = t.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.name),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put file record %q into %s: %w", rec.FileName, t.name, err)
	}
	return nil
}

// Scan returns every record in the table, following pagination until the
// table is exhausted. Records come back in the order DynamoDB returns them.
func (t *Table) Scan(ctx context.Context) ([]FileRecord, error) {
	var records []FileRecord

	p := dynamodb.NewScanPaginator(t.api, &dynamodb.ScanInput{
		TableName: aws.String(t.name),
	})
	for page := 1; p.HasMorePages(); page++ {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s page %d: %w", t.name, page, err)
		}

		var batch []FileRecord
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal %s page %d: %w", t.name, page, err)
		}
		records = append(records, batch...)
	}

	return records, nil
}
