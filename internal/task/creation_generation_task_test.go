package task

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotdapp/dotd-api/internal/domain"
	"github.com/dotdapp/dotd-api/internal/generation"
)

// recordingStore wraps MemoryStatusStore and records the sequence of status
// transitions for assertions.
type recordingStore struct {
	*MemoryStatusStore
	history []Status
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStatusStore: NewMemoryStatusStore(nil)}
}

func (s *recordingStore) Update(id uuid.UUID, status Status, result any) {
	s.history = append(s.history, status)
	s.MemoryStatusStore.Update(id, status, result)
}

type fakeClient struct {
	raw     json.RawMessage
	err     error
	panicIt bool
	called  bool
}

func (f *fakeClient) Generate(ctx context.Context, req *generation.Request) (json.RawMessage, error) {
	f.called = true
	if f.panicIt {
		panic("client exploded")
	}
	return f.raw, f.err
}

type fakeExtractor struct {
	result *generation.Result
	err    error
}

func (f *fakeExtractor) Extract(raw json.RawMessage) (*generation.Result, error) {
	return f.result, f.err
}

type fakeMedia struct {
	url       string
	err       error
	savedData []byte
	savedMIME string
	called    bool
}

func (f *fakeMedia) Save(ctx context.Context, data []byte, mimeType string) (string, error) {
	f.called = true
	f.savedData = data
	f.savedMIME = mimeType
	return f.url, f.err
}

type fakeRecorder struct {
	err     error
	created *domain.Creation
}

func (f *fakeRecorder) Create(ctx context.Context, creation *domain.Creation) error {
	f.created = creation
	return f.err
}

type taskFixture struct {
	store     *recordingStore
	client    *fakeClient
	extractor *fakeExtractor
	media     *fakeMedia
	recorder  *fakeRecorder
	userID    uuid.UUID
	request   *generation.Request
}

func newTaskFixture() *taskFixture {
	return &taskFixture{
		store: newRecordingStore(),
		client: &fakeClient{
			raw: json.RawMessage(`{"ok": true}`),
		},
		extractor: &fakeExtractor{
			result: &generation.Result{
				MediaData:          []byte{1, 2, 3},
				MIMEType:           "image/png",
				AnalysisText:       "Sharp lines.",
				RecommendationText: "Keep the palette.",
				Tags:               []string{"minimal"},
			},
		},
		media:    &fakeMedia{url: "/static/uploads/abc.png"},
		recorder: &fakeRecorder{},
		userID:   uuid.New(),
		request: &generation.Request{
			Prompt:   "summer outfit",
			Gender:   "female",
			AgeGroup: "20s",
			IsPublic: true,
		},
	}
}

func (f *taskFixture) build(t *testing.T) *CreationGenerationTask {
	t.Helper()
	id := f.store.Create()
	task, err := NewCreationGenerationTask(
		id, f.userID, f.request,
		f.store, f.client, f.extractor, f.media, f.recorder, nil)
	require.NoError(t, err)
	return task
}

func (f *taskFixture) snapshot(t *testing.T, id uuid.UUID) Snapshot {
	t.Helper()
	snapshot, ok := f.store.Get(id)
	require.True(t, ok)
	return snapshot
}

func TestCreationGenerationTaskSuccess(t *testing.T) {
	t.Parallel()

	f := newTaskFixture()
	task := f.build(t)

	err := task.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Status{StatusProcessing, StatusCompleted}, f.store.history)

	snapshot := f.snapshot(t, task.ID())
	assert.Equal(t, StatusCompleted, snapshot.Status)

	outcome, ok := snapshot.Result.(*Outcome)
	require.True(t, ok)
	assert.Equal(t, json.RawMessage(`{"ok": true}`), outcome.RawResponse)

	creation := outcome.Creation
	require.NotNil(t, creation)
	assert.Equal(t, f.userID, creation.UserID)
	assert.Equal(t, "/static/uploads/abc.png", creation.MediaURL)
	assert.Equal(t, domain.MediaTypeImage, creation.MediaType)
	assert.Equal(t, "summer outfit", creation.Prompt)
	assert.Equal(t, "female", creation.Gender)
	assert.Equal(t, "20s", creation.AgeGroup)
	assert.True(t, creation.IsPublic)
	assert.Equal(t, "Sharp lines.", creation.AnalysisText)
	assert.Equal(t, "Keep the palette.", creation.RecommendationText)
	assert.Equal(t, []string{"minimal"}, creation.Tags)

	assert.Equal(t, []byte{1, 2, 3}, f.media.savedData)
	assert.Equal(t, "image/png", f.media.savedMIME)
	assert.Equal(t, creation, f.recorder.created)
}

func TestCreationGenerationTaskVideoMedia(t *testing.T) {
	t.Parallel()

	f := newTaskFixture()
	f.extractor.result.MIMEType = "video/mp4"
	f.media.url = "/static/uploads/abc.mp4"
	task := f.build(t)

	require.NoError(t, task.Execute(context.Background()))

	snapshot := f.snapshot(t, task.ID())
	outcome := snapshot.Result.(*Outcome)
	assert.Equal(t, domain.MediaTypeVideo, outcome.Creation.MediaType)
}

func TestCreationGenerationTaskFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		mutate       func(*taskFixture)
		wantCategory string
		mediaCalled  bool
	}{
		{
			name: "transport failure",
			mutate: func(f *taskFixture) {
				f.client.raw = nil
				f.client.err = &generation.TransportError{Err: errors.New("timeout")}
			},
			wantCategory: "transport_error",
		},
		{
			name: "upstream failure",
			mutate: func(f *taskFixture) {
				f.client.raw = nil
				f.client.err = &generation.UpstreamError{StatusCode: 502, Body: "bad gateway"}
			},
			wantCategory: "upstream_error",
		},
		{
			name: "missing media",
			mutate: func(f *taskFixture) {
				f.extractor.result = nil
				f.extractor.err = generation.ErrMissingMedia
			},
			wantCategory: "missing_media",
		},
		{
			name: "malformed response",
			mutate: func(f *taskFixture) {
				f.extractor.result = nil
				f.extractor.err = &generation.MalformedResponseError{
					RawBody: "<html>",
					Err:     errors.New("not json"),
				}
			},
			wantCategory: "malformed_response",
		},
		{
			name: "storage write failure",
			mutate: func(f *taskFixture) {
				f.media.url = ""
				f.media.err = &generation.StorageWriteError{
					Path: "/uploads/x.png",
					Err:  errors.New("disk full"),
				}
			},
			wantCategory: "storage_write_error",
			mediaCalled:  true,
		},
		{
			name: "persistence failure",
			mutate: func(f *taskFixture) {
				f.recorder.err = errors.New("unique violation")
			},
			wantCategory: "persistence_error",
			mediaCalled:  true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newTaskFixture()
			tc.mutate(f)
			task := f.build(t)

			err := task.Execute(context.Background())
			require.Error(t, err)

			assert.Equal(t, []Status{StatusProcessing, StatusFailed}, f.store.history)

			snapshot := f.snapshot(t, task.ID())
			failure, ok := snapshot.Result.(*Failure)
			require.True(t, ok)
			assert.Equal(t, tc.wantCategory, failure.Category)
			assert.NotEmpty(t, failure.Error)
			assert.NotEmpty(t, failure.Trace)

			assert.Equal(t, tc.mediaCalled, f.media.called)
		})
	}
}

func TestCreationGenerationTaskPanicRecovery(t *testing.T) {
	t.Parallel()

	f := newTaskFixture()
	f.client.panicIt = true
	task := f.build(t)

	err := task.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")

	snapshot := f.snapshot(t, task.ID())
	assert.Equal(t, StatusFailed, snapshot.Status)

	failure, ok := snapshot.Result.(*Failure)
	require.True(t, ok)
	assert.Equal(t, "unexpected_error", failure.Category)
	assert.Contains(t, failure.Error, "client exploded")
	assert.NotEmpty(t, failure.Trace)
}

func TestNewCreationGenerationTaskValidation(t *testing.T) {
	t.Parallel()

	f := newTaskFixture()
	id := f.store.Create()

	tests := []struct {
		name    string
		build   func() (*CreationGenerationTask, error)
		wantErr error
	}{
		{
			name: "nil task id",
			build: func() (*CreationGenerationTask, error) {
				return NewCreationGenerationTask(uuid.Nil, f.userID, f.request,
					f.store, f.client, f.extractor, f.media, f.recorder, nil)
			},
			wantErr: ErrEmptyTaskID,
		},
		{
			name: "nil user id",
			build: func() (*CreationGenerationTask, error) {
				return NewCreationGenerationTask(id, uuid.Nil, f.request,
					f.store, f.client, f.extractor, f.media, f.recorder, nil)
			},
			wantErr: ErrEmptyUserID,
		},
		{
			name: "nil request",
			build: func() (*CreationGenerationTask, error) {
				return NewCreationGenerationTask(id, f.userID, nil,
					f.store, f.client, f.extractor, f.media, f.recorder, nil)
			},
			wantErr: ErrNilRequest,
		},
		{
			name: "nil client",
			build: func() (*CreationGenerationTask, error) {
				return NewCreationGenerationTask(id, f.userID, f.request,
					f.store, nil, f.extractor, f.media, f.recorder, nil)
			},
			wantErr: ErrNilClient,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := tc.build()
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
