package publish

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontoforge/internal/artifact"
	"ontoforge/internal/config"
	"ontoforge/internal/logging"
)

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
	failOn  string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: map[string]string{}, types: map[string]string{}}
}

func (f *fakeUploader) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(in.Key)
	if key == f.failOn {
		return nil, errors.New("access denied")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = string(body)
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func populatedStore(t *testing.T) *artifact.Store {
	t.Helper()
	store := artifact.NewStore(t.TempDir(), logging.Discard())
	require.NoError(t, store.WriteJSON(artifact.ReferenceOntology, map[string]string{"a": "b"}))
	require.NoError(t, store.WriteJSON("views/class-hierarchy_all.json", map[string]string{}))
	require.NoError(t, store.WriteFile(artifact.MetricsFile, []byte("# metrics\n")))
	return store
}

func TestPublisher_Publish(t *testing.T) {
	fake := newFakeUploader()
	p := NewPublisher(fake, "ontologies", "/releases/v1/", logging.Discard())

	keys, err := p.Publish(context.Background(), populatedStore(t))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"releases/v1/metrics.prom",
		"releases/v1/ontology.json",
		"releases/v1/views/class-hierarchy_all.json",
	}, keys)

	assert.JSONEq(t, `{"a":"b"}`, fake.objects["releases/v1/ontology.json"])
	assert.Equal(t, "application/json", fake.types["releases/v1/ontology.json"])
	assert.Equal(t, "text/plain; version=0.0.4", fake.types["releases/v1/metrics.prom"])
}

func TestPublisher_StopsOnFailure(t *testing.T) {
	fake := newFakeUploader()
	fake.failOn = "ontology.json"
	p := NewPublisher(fake, "ontologies", "", logging.Discard())

	keys, err := p.Publish(context.Background(), populatedStore(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://ontologies/ontology.json")
	assert.Equal(t, []string{"metrics.prom"}, keys)
}

func TestPublisher_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	keys, err := NewPublisher(newFakeUploader(), "b", "", logging.Discard()).Publish(ctx, populatedStore(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, keys)
}

func TestNewS3Client_Options(t *testing.T) {
	client, err := NewS3Client(context.Background(), config.S3Config{
		Bucket:       "ontologies",
		Region:       "eu-west-1",
		Endpoint:     "http://localhost:9000",
		UsePathStyle: true,
		AccessKey:    "minio",
		SecretKey:    "minio123",
	})
	require.NoError(t, err)

	opts := client.Options()
	assert.Equal(t, "eu-west-1", opts.Region)
	assert.Equal(t, "http://localhost:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)

	creds, err := opts.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "minio", creds.AccessKeyID)
}
