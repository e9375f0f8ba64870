package s3

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyrite-engine/pyrite/blobstore"
)

// fakeDDBClient is an in-memory DynamoDB double honoring the conditional
// write used by CommitStore.
type fakeDDBClient struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue
}

func newFakeDDBClient() *fakeDDBClient {
	return &fakeDDBClient{items: make(map[string]map[string]types.AttributeValue)}
}

func itemKey(item map[string]types.AttributeValue) string {
	uri := item["base_uri"].(*types.AttributeValueMemberS).Value
	version := item["version"].(*types.AttributeValueMemberN).Value
	return uri + ":" + version
}

func (f *fakeDDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := itemKey(params.Item)
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(version)" {
		if _, exists := f.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}
	f.items[key] = params.Item

	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDBClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	uri := params.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value

	var items []map[string]types.AttributeValue
	for _, item := range f.items {
		if item["base_uri"].(*types.AttributeValueMemberS).Value == uri {
			items = append(items, item)
		}
	}

	// Version numbers stay short enough in these tests for the
	// lexicographic order to match the numeric one.
	sort.Slice(items, func(i, j int) bool {
		vi := items[i]["version"].(*types.AttributeValueMemberN).Value
		vj := items[j]["version"].(*types.AttributeValueMemberN).Value
		return vi > vj
	})
	if params.Limit != nil && int(*params.Limit) < len(items) {
		items = items[:*params.Limit]
	}

	return &dynamodb.QueryOutput{Items: items}, nil
}

func newTestCommitStore(ddb *fakeDDBClient, baseURI string) *CommitStore {
	inner := &Store{bucket: "test-bucket", prefix: "test/"}
	return NewCommitStore(inner, ddb, "pyrite-commits", baseURI)
}

func readPointer(t *testing.T, store *CommitStore) string {
	t.Helper()

	b, err := store.Open(context.Background(), CurrentPointer)
	require.NoError(t, err)
	defer b.Close()

	data, err := blobstore.ReadFull(b)
	require.NoError(t, err)

	return string(data)
}

func TestCommitStoreFirstCommit(t *testing.T) {
	ctx := context.Background()
	store := newTestCommitStore(newFakeDDBClient(), "s3://test-bucket/test/")

	require.NoError(t, store.Put(ctx, CurrentPointer, []byte("MANIFEST-000001.json")))
	assert.Equal(t, "MANIFEST-000001.json", readPointer(t, store))
}

func TestCommitStoreLatestWins(t *testing.T) {
	ctx := context.Background()
	store := newTestCommitStore(newFakeDDBClient(), "s3://test-bucket/test/")

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Put(ctx, CurrentPointer, []byte(fmt.Sprintf("MANIFEST-%06d.json", i))))
	}

	assert.Equal(t, "MANIFEST-000003.json", readPointer(t, store))
}

func TestCommitStoreConcurrentCommits(t *testing.T) {
	ctx := context.Background()
	store := newTestCommitStore(newFakeDDBClient(), "s3://test-bucket/test/")

	require.NoError(t, store.Put(ctx, CurrentPointer, []byte("MANIFEST-000001.json")))

	var (
		wg                   sync.WaitGroup
		mu                   sync.Mutex
		successes, conflicts int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			err := store.Put(ctx, CurrentPointer, []byte(fmt.Sprintf("MANIFEST-%06d.json", id+2)))
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				successes++
			case ErrConcurrentModification:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Positive(t, successes, "at least one writer should land")
}

func TestCommitStoreNotFoundBeforeCommit(t *testing.T) {
	store := newTestCommitStore(newFakeDDBClient(), "s3://test-bucket/test/")

	_, err := store.Open(context.Background(), CurrentPointer)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestCommitStoreRejectsStreamingPointer(t *testing.T) {
	store := newTestCommitStore(newFakeDDBClient(), "s3://test-bucket/test/")

	_, err := store.Create(context.Background(), CurrentPointer)
	assert.Error(t, err)
}

func TestCommitStoreIsolatedNamespaces(t *testing.T) {
	ctx := context.Background()
	ddb := newFakeDDBClient()
	storeA := newTestCommitStore(ddb, "s3://bucket-a/lib/")
	storeB := newTestCommitStore(ddb, "s3://bucket-b/lib/")

	require.NoError(t, storeA.Put(ctx, CurrentPointer, []byte("MANIFEST-A.json")))
	require.NoError(t, storeB.Put(ctx, CurrentPointer, []byte("MANIFEST-B.json")))

	assert.Equal(t, "MANIFEST-A.json", readPointer(t, storeA))
	assert.Equal(t, "MANIFEST-B.json", readPointer(t, storeB))
}
