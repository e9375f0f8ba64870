package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/pyrite-engine/pyrite/blobstore"
)

// CurrentPointer is the blob name whose updates go through the DynamoDB
// commit log instead of plain S3.
const CurrentPointer = "CURRENT"

// ErrConcurrentModification is returned when another writer committed a new
// pointer version first.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// DynamoDBClient is the subset of the DynamoDB API CommitStore needs.
type DynamoDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// CommitStore is an S3 blob store whose CURRENT pointer updates are atomic.
//
// S3 has no compare-and-swap, so two libraries saving concurrently could
// both overwrite CURRENT and silently drop one commit. CommitStore routes
// CURRENT through a DynamoDB table with a conditional write: each commit
// claims the next version number, and a lost race surfaces as
// ErrConcurrentModification instead of lost data.
//
// Table schema: partition key base_uri (S), sort key version (N).
type CommitStore struct {
	inner   *Store
	ddb     DynamoDBClient
	table   string
	baseURI string
}

// NewCommitStore wraps inner with DynamoDB-coordinated pointer commits.
// baseURI identifies this library in the table, e.g. "s3://bucket/prefix".
func NewCommitStore(inner *Store, ddb DynamoDBClient, table, baseURI string) *CommitStore {
	return &CommitStore{
		inner:   inner,
		ddb:     ddb,
		table:   table,
		baseURI: baseURI,
	}
}

// Open opens a blob. The CURRENT pointer is answered from DynamoDB.
func (s *CommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name == CurrentPointer {
		version, target, err := s.latest(ctx)
		if err != nil {
			return nil, err
		}
		if version == 0 {
			return nil, blobstore.ErrNotFound
		}
		return &pointerBlob{content: []byte(target)}, nil
	}
	return s.inner.Open(ctx, name)
}

// Create creates a blob for streaming writes. CURRENT cannot be streamed.
func (s *CommitStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	if name == CurrentPointer {
		return nil, fmt.Errorf("%s must be written with Put", CurrentPointer)
	}
	return s.inner.Create(ctx, name)
}

// Put writes a blob. A Put to CURRENT becomes a conditional DynamoDB commit.
func (s *CommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name == CurrentPointer {
		return s.commit(ctx, string(data))
	}
	return s.inner.Put(ctx, name, data)
}

// Delete removes a blob.
func (s *CommitStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, name)
}

// List returns all blob names with the given prefix.
func (s *CommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// latest returns the highest committed version and its pointer target.
// Version 0 means nothing was ever committed.
func (s *CommitStore) latest(ctx context.Context) (uint64, string, error) {
	resp, err := s.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("query commit log: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("commit log: malformed version attribute")
	}
	targetAttr, ok := item["target"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("commit log: malformed target attribute")
	}

	var version uint64
	if _, err := fmt.Sscanf(versionAttr.Value, "%d", &version); err != nil {
		return 0, "", fmt.Errorf("commit log: parse version: %w", err)
	}
	return version, targetAttr.Value, nil
}

// commit claims the next version number for target. The conditional write
// fails if another writer claimed it first.
func (s *CommitStore) commit(ctx context.Context, target string) error {
	current, _, err := s.latest(ctx)
	if err != nil {
		return err
	}

	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
			"version":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", current+1)},
			"target":   &types.AttributeValueMemberS{Value: target},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("commit pointer: %w", err)
	}
	return nil
}

// pointerBlob serves the CURRENT content resolved from DynamoDB.
type pointerBlob struct {
	content []byte
}

func (b *pointerBlob) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(b.content)) {
		return 0, io.EOF
	}
	n := copy(p, b.content[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *pointerBlob) Close() error { return nil }

func (b *pointerBlob) Size() int64 { return int64(len(b.content)) }

func (b *pointerBlob) Bytes() ([]byte, error) { return b.content, nil }
