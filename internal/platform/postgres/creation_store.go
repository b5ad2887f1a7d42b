package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dotdapp/dotd-api/internal/domain"
	"github.com/dotdapp/dotd-api/internal/store"
)

// creationColumns is the select list shared by all creation reads, with
// author fields joined from the owning user.
const creationColumns = `
	c.id, c.user_id, c.media_url, c.media_type, c.prompt, c.gender,
	c.age_group, c.is_public, c.is_picked_by_admin, c.likes_count,
	c.analysis_text, c.recommendation_text, c.tags_array, c.created_at,
	u.name, u.picture`

// CreationStore implements the store.CreationStore interface using PostgreSQL.
type CreationStore struct {
	db *sql.DB
}

// Ensure CreationStore implements store.CreationStore
var _ store.CreationStore = (*CreationStore)(nil)

// NewCreationStore creates a new PostgreSQL implementation of the
// CreationStore interface.
func NewCreationStore(db *sql.DB) *CreationStore {
	return &CreationStore{db: db}
}

// Create implements store.CreationStore.Create.
func (s *CreationStore) Create(ctx context.Context, creation *domain.Creation) error {
	if err := creation.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	tags, err := marshalTags(creation.Tags)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO creations (
			id, user_id, media_url, media_type, prompt, gender, age_group,
			is_public, is_picked_by_admin, likes_count, analysis_text,
			recommendation_text, tags_array, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = s.db.ExecContext(ctx, query,
		creation.ID, creation.UserID, creation.MediaURL, creation.MediaType,
		creation.Prompt, creation.Gender, creation.AgeGroup, creation.IsPublic,
		creation.IsPickedByAdmin, creation.LikesCount, creation.AnalysisText,
		creation.RecommendationText, tags, creation.CreatedAt)
	if err != nil {
		return MapError(err)
	}

	return nil
}

// GetByID implements store.CreationStore.GetByID.
func (s *CreationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Creation, error) {
	query := `
		SELECT ` + creationColumns + `
		FROM creations c
		JOIN users u ON c.user_id = u.id
		WHERE c.id = $1`

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, MapError(err)
	}
	creations, err := collectCreations(rows)
	if err != nil {
		return nil, MapError(err)
	}
	if len(creations) == 0 {
		return nil, store.ErrCreationNotFound
	}

	return creations[0], nil
}

// ListByUser implements store.CreationStore.ListByUser.
func (s *CreationStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Creation, error) {
	query := `
		SELECT ` + creationColumns + `
		FROM creations c
		JOIN users u ON c.user_id = u.id
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, MapError(err)
	}
	return collectCreations(rows)
}

// ListFeed implements store.CreationStore.ListFeed. The per-viewer IsLiked
// flag is computed in the same query; uuid.Nil matches no likes row, so
// anonymous feeds come back with the flag unset.
func (s *CreationStore) ListFeed(ctx context.Context, viewerID uuid.UUID, sort store.FeedSort, limit, offset int) ([]*domain.Creation, error) {
	orderBy := "c.created_at DESC"
	if sort == store.FeedSortPopular {
		orderBy = "c.likes_count DESC, c.created_at DESC"
	}

	query := `
		SELECT ` + creationColumns + `,
			EXISTS (SELECT 1 FROM likes l
				WHERE l.user_id = $1 AND l.creation_id = c.id) AS is_liked
		FROM creations c
		JOIN users u ON c.user_id = u.id
		WHERE c.is_public = TRUE
		ORDER BY ` + orderBy + `
		LIMIT $2 OFFSET $3`

	rows, err := s.db.QueryContext(ctx, query, viewerID, limit, offset)
	if err != nil {
		return nil, MapError(err)
	}

	defer func() { _ = rows.Close() }()

	var creations []*domain.Creation
	for rows.Next() {
		var liked bool
		creation, err := scanCreation(rows, &liked)
		if err != nil {
			return nil, err
		}
		creation.IsLiked = liked
		creations = append(creations, creation)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return creations, nil
}

// ListPicked implements store.CreationStore.ListPicked.
func (s *CreationStore) ListPicked(ctx context.Context, limit int) ([]*domain.Creation, error) {
	query := `
		SELECT ` + creationColumns + `
		FROM creations c
		JOIN users u ON c.user_id = u.id
		WHERE c.is_picked_by_admin = TRUE
		ORDER BY c.created_at DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, MapError(err)
	}
	return collectCreations(rows)
}

// Delete implements store.CreationStore.Delete.
func (s *CreationStore) Delete(ctx context.Context, id uuid.UUID) (*domain.Creation, error) {
	creation, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM creations WHERE id = $1`, id)
	if err != nil {
		return nil, MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, MapError(err)
	}
	if affected == 0 {
		return nil, store.ErrCreationNotFound
	}

	return creation, nil
}

// AddLike implements store.CreationStore.AddLike. The like row and the
// denormalized counter are updated in one transaction.
func (s *CreationStore) AddLike(ctx context.Context, userID, creationID uuid.UUID) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO likes (user_id, creation_id) VALUES ($1, $2)`,
			userID, creationID)
		if err != nil {
			if IsUniqueViolation(err) {
				return store.ErrAlreadyLiked
			}
			return MapError(err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE creations SET likes_count = likes_count + 1 WHERE id = $1`,
			creationID)
		return MapError(err)
	})
}

// RemoveLike implements store.CreationStore.RemoveLike.
func (s *CreationStore) RemoveLike(ctx context.Context, userID, creationID uuid.UUID) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM likes WHERE user_id = $1 AND creation_id = $2`,
			userID, creationID)
		if err != nil {
			return MapError(err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return MapError(err)
		}
		if affected == 0 {
			return store.ErrLikeNotFound
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE creations SET likes_count = GREATEST(0, likes_count - 1) WHERE id = $1`,
			creationID)
		return MapError(err)
	})
}

// HasLiked implements store.CreationStore.HasLiked.
func (s *CreationStore) HasLiked(ctx context.Context, userID, creationID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM likes WHERE user_id = $1 AND creation_id = $2)`,
		userID, creationID).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// SetAdminPick implements store.CreationStore.SetAdminPick.
func (s *CreationStore) SetAdminPick(ctx context.Context, id uuid.UUID, picked bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE creations SET is_picked_by_admin = $1 WHERE id = $2`,
		picked, id)
	if err != nil {
		return MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if affected == 0 {
		return store.ErrCreationNotFound
	}

	return nil
}

// CountCreatedSince implements store.CreationStore.CountCreatedSince.
func (s *CreationStore) CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM creations WHERE user_id = $1 AND created_at >= $2`,
		userID, since).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// inTx runs fn inside a transaction, rolling back on any error.
func (s *CreationStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return MapError(err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	return MapError(tx.Commit())
}

// collectCreations drains the rows into creation records.
func collectCreations(rows *sql.Rows) ([]*domain.Creation, error) {
	defer func() { _ = rows.Close() }()

	var creations []*domain.Creation
	for rows.Next() {
		creation, err := scanCreation(rows)
		if err != nil {
			return nil, err
		}
		creations = append(creations, creation)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return creations, nil
}

// scanCreation reads one joined creation row; extra receives any trailing
// columns a query selects beyond the shared column list.
func scanCreation(rows *sql.Rows, extra ...any) (*domain.Creation, error) {
	var creation domain.Creation
	var gender, ageGroup, analysis, recommendation, authorPicture sql.NullString
	var tags []byte

	dest := []any{
		&creation.ID, &creation.UserID, &creation.MediaURL, &creation.MediaType,
		&creation.Prompt, &gender, &ageGroup, &creation.IsPublic,
		&creation.IsPickedByAdmin, &creation.LikesCount, &analysis,
		&recommendation, &tags, &creation.CreatedAt,
		&creation.AuthorName, &authorPicture,
	}
	dest = append(dest, extra...)

	if err := rows.Scan(dest...); err != nil {
		return nil, MapError(err)
	}

	creation.Gender = gender.String
	creation.AgeGroup = ageGroup.String
	creation.AnalysisText = analysis.String
	creation.RecommendationText = recommendation.String
	creation.AuthorPicture = authorPicture.String

	parsedTags, err := unmarshalTags(tags)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	creation.Tags = parsedTags

	return &creation, nil
}

// Tags are stored as jsonb; database/sql has no native []string scanning,
// so the conversion happens at this boundary.

func marshalTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(tags)
}

func unmarshalTags(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}
