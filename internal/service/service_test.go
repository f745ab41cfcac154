package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/contentwriter/api/internal/backend"
	"github.com/contentwriter/api/internal/model"
)

func setupTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

// scriptedBackend returns fixed responses and records every call.
type scriptedBackend struct {
	mu         sync.Mutex
	text       string
	textErr    error
	images     [][]byte
	imageMIME  string
	imageErr   error
	textCalls  []backend.TextRequest
	imageCalls []backend.ImageRequest
}

func (b *scriptedBackend) GenerateText(ctx context.Context, req backend.TextRequest) (*backend.TextResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.textCalls = append(b.textCalls, req)
	if b.textErr != nil {
		return nil, b.textErr
	}
	return &backend.TextResponse{Text: b.text}, nil
}

func (b *scriptedBackend) GenerateImage(ctx context.Context, req backend.ImageRequest) (*backend.ImageResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.imageCalls = append(b.imageCalls, req)
	if b.imageErr != nil {
		return nil, b.imageErr
	}
	return &backend.ImageResponse{Images: b.images, MIMEType: b.imageMIME}, nil
}

func (b *scriptedBackend) calls() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.textCalls), len(b.imageCalls)
}

func providerFor(b *scriptedBackend) *backend.Provider {
	return &backend.Provider{
		Name:       "scripted",
		Text:       b,
		Image:      b,
		TextModel:  "text-model",
		ImageModel: "image-model",
	}
}

// recordingDispatcher captures related topics dispatches.
type recordingDispatcher struct {
	mu       sync.Mutex
	payloads []model.RelatedTopicsPayload
	err      error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, payload model.RelatedTopicsPayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payloads = append(d.payloads, payload)
	return d.err
}

// memoryArchive is an in-memory object store.
type memoryArchive struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemoryArchive() *memoryArchive {
	return &memoryArchive{objects: map[string][]byte{}, types: map[string]string{}}
}

func (a *memoryArchive) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	a.objects[key] = data
	a.types[key] = contentType
	return "https://files.example.com/" + key, nil
}

// fakeEnqueuer is a TaskEnqueuer that records tasks.
type fakeEnqueuer struct {
	tasks []enqueuedTask
	err   error
}

type enqueuedTask struct {
	typename string
	payload  []byte
}

func (e *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, enqueuedTask{typename: task.Type(), payload: task.Payload()})
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

var errEnqueue = errors.New("redis down")
