package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dotdapp/dotd-api/internal/domain"
)

// FeedSort selects the ordering of the public feed.
type FeedSort string

// Possible feed orderings
const (
	FeedSortLatest  FeedSort = "latest"
	FeedSortPopular FeedSort = "popular"
)

// CreationStore defines the interface for creation data persistence,
// including likes and admin picks.
type CreationStore interface {
	// Create saves a new creation to the store.
	Create(ctx context.Context, creation *domain.Creation) error

	// GetByID retrieves a creation by its ID, with author fields joined.
	// Returns ErrCreationNotFound if the creation does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Creation, error)

	// ListByUser retrieves a user's creations, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Creation, error)

	// ListFeed retrieves public creations for the feed with the given
	// ordering and pagination. Each record's IsLiked flag is computed for
	// the viewer; pass uuid.Nil for anonymous callers.
	ListFeed(ctx context.Context, viewerID uuid.UUID, sort FeedSort, limit, offset int) ([]*domain.Creation, error)

	// ListPicked retrieves admin-picked creations, newest first.
	ListPicked(ctx context.Context, limit int) ([]*domain.Creation, error)

	// Delete removes a creation and returns the deleted record.
	// Returns ErrCreationNotFound if the creation does not exist.
	Delete(ctx context.Context, id uuid.UUID) (*domain.Creation, error)

	// AddLike records a like and increments the creation's like counter.
	// Returns ErrAlreadyLiked if the user already liked the creation.
	AddLike(ctx context.Context, userID, creationID uuid.UUID) error

	// RemoveLike removes a like and decrements the creation's like counter.
	// Returns ErrLikeNotFound if the user has no like on the creation.
	RemoveLike(ctx context.Context, userID, creationID uuid.UUID) error

	// HasLiked reports whether the user has liked the creation.
	HasLiked(ctx context.Context, userID, creationID uuid.UUID) (bool, error)

	// SetAdminPick sets the admin-pick flag on a creation.
	// Returns ErrCreationNotFound if the creation does not exist.
	SetAdminPick(ctx context.Context, id uuid.UUID, picked bool) error

	// CountCreatedSince counts a user's creations created at or after the
	// given instant. Used for daily quota enforcement.
	CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
}
