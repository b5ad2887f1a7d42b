package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/dotdapp/dotd-api/internal/domain"
	"github.com/dotdapp/dotd-api/internal/generation"
)

// Common errors
var (
	ErrNilStatusStore = errors.New("status store cannot be nil")
	ErrNilClient      = errors.New("generation client cannot be nil")
	ErrNilExtractor   = errors.New("extractor cannot be nil")
	ErrNilPersister   = errors.New("media persister cannot be nil")
	ErrNilRecorder    = errors.New("creation recorder cannot be nil")
	ErrNilRequest     = errors.New("generation request cannot be nil")
	ErrEmptyTaskID    = errors.New("task ID cannot be empty")
	ErrEmptyUserID    = errors.New("user ID cannot be empty")
)

// MediaPersister writes decoded media to durable storage and returns a
// public reference to it.
type MediaPersister interface {
	Save(ctx context.Context, data []byte, mimeType string) (string, error)
}

// CreationRecorder commits creation metadata to the relational store.
type CreationRecorder interface {
	Create(ctx context.Context, creation *domain.Creation) error
}

// Outcome is the result payload of a completed generation task: the newly
// created record plus the raw generation response for audit and debugging.
type Outcome struct {
	Creation    *domain.Creation `json:"creation"`
	RawResponse json.RawMessage  `json:"raw_response"`
}

// CreationGenerationTask drives one creation task from dispatch to its
// terminal state: generation call, result extraction, media persistence,
// metadata commit. It owns its task for its entire lifetime; the dispatching
// handler guarantees exactly one instance per created task identifier.
type CreationGenerationTask struct {
	id        uuid.UUID
	userID    uuid.UUID
	request   *generation.Request
	store     StatusStore
	client    generation.Client
	extractor generation.Extractor
	media     MediaPersister
	creations CreationRecorder
	logger    *slog.Logger
}

// NewCreationGenerationTask creates the orchestrator for an already-created
// task identifier.
func NewCreationGenerationTask(
	id uuid.UUID,
	userID uuid.UUID,
	request *generation.Request,
	store StatusStore,
	client generation.Client,
	extractor generation.Extractor,
	media MediaPersister,
	creations CreationRecorder,
	logger *slog.Logger,
) (*CreationGenerationTask, error) {
	if id == uuid.Nil {
		return nil, ErrEmptyTaskID
	}
	if userID == uuid.Nil {
		return nil, ErrEmptyUserID
	}
	if request == nil {
		return nil, ErrNilRequest
	}
	if store == nil {
		return nil, ErrNilStatusStore
	}
	if client == nil {
		return nil, ErrNilClient
	}
	if extractor == nil {
		return nil, ErrNilExtractor
	}
	if media == nil {
		return nil, ErrNilPersister
	}
	if creations == nil {
		return nil, ErrNilRecorder
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CreationGenerationTask{
		id:        id,
		userID:    userID,
		request:   request,
		store:     store,
		client:    client,
		extractor: extractor,
		media:     media,
		creations: creations,
		logger:    logger.With("task_type", TypeCreationGeneration, "task_id", id),
	}, nil
}

// ID returns the task's unique identifier.
func (t *CreationGenerationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier.
func (t *CreationGenerationTask) Type() string {
	return TypeCreationGeneration
}

// Execute runs the pipeline. Every failure, panics included, is converted
// into a failed status update carrying the error's category, message and
// diagnostic trace; nothing escapes unrecorded.
func (t *CreationGenerationTask) Execute(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic during creation generation: %v", rec)
			t.fail(err, string(debug.Stack()))
		}
	}()

	// A poller must never see pending once work has actually started.
	t.store.Update(t.id, StatusProcessing, nil)
	t.logger.Info("starting creation generation")

	raw, err := t.client.Generate(ctx, t.request)
	if err != nil {
		t.fail(err, string(debug.Stack()))
		return fmt.Errorf("generation call failed: %w", err)
	}

	result, err := t.extractor.Extract(raw)
	if err != nil {
		t.fail(err, string(debug.Stack()))
		return fmt.Errorf("result extraction failed: %w", err)
	}

	mediaURL, err := t.media.Save(ctx, result.MediaData, result.MIMEType)
	if err != nil {
		t.fail(err, string(debug.Stack()))
		return fmt.Errorf("media persistence failed: %w", err)
	}

	creation, err := t.buildCreation(mediaURL, result)
	if err == nil {
		if createErr := t.creations.Create(ctx, creation); createErr != nil {
			err = &generation.PersistenceError{Err: createErr}
		}
	}
	if err != nil {
		t.fail(err, string(debug.Stack()))
		return fmt.Errorf("metadata commit failed: %w", err)
	}

	t.store.Update(t.id, StatusCompleted, &Outcome{
		Creation:    creation,
		RawResponse: raw,
	})
	t.logger.Info("creation generation completed", "creation_id", creation.ID)

	return nil
}

// buildCreation assembles the creation record from the caller-supplied
// request attributes and the extracted generation result.
func (t *CreationGenerationTask) buildCreation(mediaURL string, result *generation.Result) (*domain.Creation, error) {
	creation, err := domain.NewCreation(
		t.userID,
		mediaURL,
		domain.MediaTypeForMIME(result.MIMEType),
		t.request.Prompt,
	)
	if err != nil {
		return nil, err
	}

	creation.Gender = t.request.Gender
	creation.AgeGroup = t.request.AgeGroup
	creation.IsPublic = t.request.IsPublic
	creation.AnalysisText = result.AnalysisText
	creation.RecommendationText = result.RecommendationText
	creation.Tags = result.Tags

	return creation, nil
}

// fail records a failed terminal transition with the error's category,
// message and trace.
func (t *CreationGenerationTask) fail(err error, trace string) {
	category := generation.CategoryOf(err)

	t.logger.Error("creation generation failed",
		"category", category,
		"error", err)

	t.store.Update(t.id, StatusFailed, &Failure{
		Category: string(category),
		Error:    err.Error(),
		Trace:    trace,
	})
}
