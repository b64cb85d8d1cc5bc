package archive

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3Client is an in-memory S3API stand-in, grounded on
// internal/adapter/gateway/storage/mock_s3_client.go's in-memory-object
// approach, narrowed to the single operation S3Archiver uses.
type fakeS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3Client() *fakeS3Client {
	return &fakeS3Client{objects: make(map[string][]byte)}
}

func (f *fakeS3Client) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	content, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(params.Key)] = content
	return &s3.PutObjectOutput{}, nil
}

func TestS3Archiver_ArchiveUploadsSnapshotAndReturnsURI(t *testing.T) {
	client := newFakeS3Client()
	archiver := NewS3ArchiverWithClient(client, "atzentis-sessions", "prod")

	ref, err := archiver.Archive(context.Background(), "session-123", []byte(`{"id":"session-123"}`))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "s3://atzentis-sessions/prod/sessions/session-123/"))

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Len(t, client.objects, 1)
	for _, content := range client.objects {
		assert.JSONEq(t, `{"id":"session-123"}`, string(content))
	}
}

func TestS3Archiver_NoPrefixOmitsLeadingSegment(t *testing.T) {
	client := newFakeS3Client()
	archiver := NewS3ArchiverWithClient(client, "bucket", "")

	ref, err := archiver.Archive(context.Background(), "s1", []byte("{}"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "s3://bucket/sessions/s1/"))
}

func TestNoopArchiver_ReturnsEmptyRef(t *testing.T) {
	ref, err := NoopArchiver{}.Archive(context.Background(), "s1", []byte("{}"))
	require.NoError(t, err)
	assert.Empty(t, ref)
}
