package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dotdapp/dotd-api/internal/config"
	"github.com/dotdapp/dotd-api/internal/domain"
	"github.com/dotdapp/dotd-api/internal/generation"
	"github.com/dotdapp/dotd-api/internal/store"
	"github.com/dotdapp/dotd-api/internal/task"
)

// MediaStore persists generated media and removes it when a creation is
// deleted.
type MediaStore interface {
	Save(ctx context.Context, data []byte, mimeType string) (string, error)
	Remove(ctx context.Context, publicURL string) error
}

// TaskSubmitter enqueues background tasks for asynchronous execution.
type TaskSubmitter interface {
	Submit(ctx context.Context, t task.Task) error
}

// GenerationParams carries the caller-supplied attributes of a generation
// request.
type GenerationParams struct {
	Prompt        string
	Gender        string
	AgeGroup      string
	IsPublic      bool
	ImageData     []byte
	ImageMIMEType string
	ImageFilename string
}

// QuotaStatus reports a user's generation usage against their daily limit.
type QuotaStatus struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

// Remaining returns how many generations the user may still start today.
func (q QuotaStatus) Remaining() int {
	if q.Used >= q.Limit {
		return 0
	}
	return q.Limit - q.Used
}

// CreationService coordinates the creation lifecycle: asynchronous
// generation, feed queries, likes, admin picks, and deletion.
type CreationService struct {
	creations   store.CreationStore
	statusStore task.StatusStore
	submitter   TaskSubmitter
	client      generation.Client
	extractor   generation.Extractor
	media       MediaStore
	quota       config.QuotaConfig
	logger      *slog.Logger
}

// NewCreationService creates a new CreationService.
func NewCreationService(
	creations store.CreationStore,
	statusStore task.StatusStore,
	submitter TaskSubmitter,
	client generation.Client,
	extractor generation.Extractor,
	media MediaStore,
	quota config.QuotaConfig,
	logger *slog.Logger,
) *CreationService {
	if logger == nil {
		logger = slog.Default()
	}

	return &CreationService{
		creations:   creations,
		statusStore: statusStore,
		submitter:   submitter,
		client:      client,
		extractor:   extractor,
		media:       media,
		quota:       quota,
		logger:      logger.With("component", "creation_service"),
	}
}

// StartGeneration enforces the daily quota, registers a new pending task,
// and enqueues it for background execution. The returned identifier is the
// caller's handle for status polling; the request's lifetime ends here.
func (s *CreationService) StartGeneration(
	ctx context.Context,
	userID uuid.UUID,
	params GenerationParams,
) (uuid.UUID, error) {
	status, err := s.Quota(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	if status.Used >= status.Limit {
		s.logger.Info("generation quota exceeded",
			"user_id", userID,
			"used", status.Used,
			"limit", status.Limit)
		return uuid.Nil, ErrQuotaExceeded
	}

	taskID := s.statusStore.Create()

	genTask, err := task.NewCreationGenerationTask(
		taskID,
		userID,
		&generation.Request{
			Prompt:        params.Prompt,
			Gender:        params.Gender,
			AgeGroup:      params.AgeGroup,
			IsPublic:      params.IsPublic,
			ImageData:     params.ImageData,
			ImageMIMEType: params.ImageMIMEType,
			ImageFilename: params.ImageFilename,
		},
		s.statusStore,
		s.client,
		s.extractor,
		s.media,
		s.creations,
		s.logger,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to build generation task: %w", err)
	}

	if err := s.submitter.Submit(ctx, genTask); err != nil {
		// The pending record must not outlive a task that will never run.
		s.statusStore.Update(taskID, task.StatusFailed, &task.Failure{
			Category: string(generation.CategoryUnexpected),
			Error:    err.Error(),
		})
		s.logger.Error("failed to enqueue generation task",
			"error", err,
			"task_id", taskID)
		return uuid.Nil, fmt.Errorf("failed to enqueue generation task: %w", err)
	}

	s.logger.Info("generation task enqueued",
		"task_id", taskID,
		"user_id", userID)

	return taskID, nil
}

// TaskStatus returns the current snapshot of a generation task.
func (s *CreationService) TaskStatus(taskID uuid.UUID) (task.Snapshot, bool) {
	return s.statusStore.Get(taskID)
}

// Quota reports the user's generation usage since midnight UTC.
func (s *CreationService) Quota(ctx context.Context, userID uuid.UUID) (QuotaStatus, error) {
	midnight := time.Now().UTC().Truncate(24 * time.Hour)

	used, err := s.creations.CountCreatedSince(ctx, userID, midnight)
	if err != nil {
		s.logger.Error("failed to count creations for quota",
			"error", err,
			"user_id", userID)
		return QuotaStatus{}, fmt.Errorf("failed to check quota: %w", err)
	}

	return QuotaStatus{Used: used, Limit: s.quota.DailyLimit}, nil
}

// GetCreation retrieves a single creation by ID.
func (s *CreationService) GetCreation(ctx context.Context, id uuid.UUID) (*domain.Creation, error) {
	return s.creations.GetByID(ctx, id)
}

// Feed retrieves public creations with the given ordering and pagination.
// The viewer ID, when not uuid.Nil, drives the per-record IsLiked flag.
func (s *CreationService) Feed(
	ctx context.Context,
	viewerID uuid.UUID,
	sort store.FeedSort,
	limit, offset int,
) ([]*domain.Creation, error) {
	creations, err := s.creations.ListFeed(ctx, viewerID, sort, limit, offset)
	if err != nil {
		s.logger.Error("failed to list feed", "error", err, "sort", sort)
		return nil, fmt.Errorf("failed to list feed: %w", err)
	}
	return creations, nil
}

// UserCreations retrieves a user's own creations, newest first.
func (s *CreationService) UserCreations(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Creation, error) {
	creations, err := s.creations.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list user creations",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to list user creations: %w", err)
	}
	return creations, nil
}

// PickedCreations retrieves admin-picked creations, newest first.
func (s *CreationService) PickedCreations(ctx context.Context, limit int) ([]*domain.Creation, error) {
	creations, err := s.creations.ListPicked(ctx, limit)
	if err != nil {
		s.logger.Error("failed to list picked creations", "error", err)
		return nil, fmt.Errorf("failed to list picked creations: %w", err)
	}
	return creations, nil
}

// Like records the user's like on a creation.
// Returns store.ErrAlreadyLiked when the like already exists.
func (s *CreationService) Like(ctx context.Context, userID, creationID uuid.UUID) error {
	return s.creations.AddLike(ctx, userID, creationID)
}

// Unlike removes the user's like from a creation.
// Returns store.ErrLikeNotFound when no like exists.
func (s *CreationService) Unlike(ctx context.Context, userID, creationID uuid.UUID) error {
	return s.creations.RemoveLike(ctx, userID, creationID)
}

// Delete removes a creation and its stored media. Only the owner or an
// admin may delete; other actors get ErrNotOwned.
func (s *CreationService) Delete(ctx context.Context, actor *domain.User, creationID uuid.UUID) error {
	creation, err := s.creations.GetByID(ctx, creationID)
	if err != nil {
		return err
	}

	if creation.UserID != actor.ID && !actor.IsAdmin() {
		return ErrNotOwned
	}

	deleted, err := s.creations.Delete(ctx, creationID)
	if err != nil {
		if errors.Is(err, store.ErrCreationNotFound) {
			return err
		}
		s.logger.Error("failed to delete creation",
			"error", err,
			"creation_id", creationID)
		return fmt.Errorf("failed to delete creation: %w", err)
	}

	// Media cleanup is best effort: the record is already gone, and an
	// orphaned file is preferable to a phantom creation.
	if err := s.media.Remove(ctx, deleted.MediaURL); err != nil {
		s.logger.Warn("failed to remove media file for deleted creation",
			"error", err,
			"creation_id", creationID,
			"media_url", deleted.MediaURL)
	}

	s.logger.Info("creation deleted",
		"creation_id", creationID,
		"actor_id", actor.ID)

	return nil
}

// SetAdminPick marks or unmarks a creation as an admin pick.
func (s *CreationService) SetAdminPick(ctx context.Context, creationID uuid.UUID, picked bool) error {
	if err := s.creations.SetAdminPick(ctx, creationID, picked); err != nil {
		if errors.Is(err, store.ErrCreationNotFound) {
			return err
		}
		s.logger.Error("failed to set admin pick",
			"error", err,
			"creation_id", creationID)
		return fmt.Errorf("failed to set admin pick: %w", err)
	}
	return nil
}
