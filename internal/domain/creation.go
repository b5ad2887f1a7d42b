package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MediaType classifies the stored media of a creation.
type MediaType string

// Possible media types
const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// Common validation errors for Creation
var (
	ErrEmptyCreationID     = errors.New("creation ID cannot be empty")
	ErrEmptyCreationUserID = errors.New("creation user ID cannot be empty")
	ErrEmptyMediaURL       = errors.New("creation media URL cannot be empty")
	ErrEmptyPrompt         = errors.New("creation prompt cannot be empty")
	ErrInvalidMediaType    = errors.New("invalid media type")
)

// Creation represents one generated piece of content: the stored media plus
// the styling analysis the generation service produced for it.
type Creation struct {
	ID                 uuid.UUID `json:"id"`
	UserID             uuid.UUID `json:"user_id"`
	MediaURL           string    `json:"media_url"`
	MediaType          MediaType `json:"media_type"`
	Prompt             string    `json:"prompt"`
	Gender             string    `json:"gender,omitempty"`
	AgeGroup           string    `json:"age_group,omitempty"`
	IsPublic           bool      `json:"is_public"`
	IsPickedByAdmin    bool      `json:"is_picked_by_admin"`
	LikesCount         int       `json:"likes_count"`
	AnalysisText       string    `json:"analysis_text"`
	RecommendationText string    `json:"recommendation_text"`
	Tags               []string  `json:"tags_array"`
	CreatedAt          time.Time `json:"created_at"`

	// AuthorName and AuthorPicture are joined from the owning user on reads;
	// they are not part of the creations table.
	AuthorName    string `json:"author_name,omitempty"`
	AuthorPicture string `json:"author_picture,omitempty"`

	// IsLiked reports whether the viewing user has liked this creation.
	// Computed per viewer on feed reads; always false for anonymous callers.
	IsLiked bool `json:"is_liked"`
}

// NewCreation creates a Creation for the given user and media reference.
// It generates a new UUID and sets the creation timestamp.
// Returns an error if validation fails.
func NewCreation(userID uuid.UUID, mediaURL string, mediaType MediaType, prompt string) (*Creation, error) {
	creation := &Creation{
		ID:        uuid.New(),
		UserID:    userID,
		MediaURL:  mediaURL,
		MediaType: mediaType,
		Prompt:    prompt,
		IsPublic:  true,
		Tags:      []string{},
		CreatedAt: time.Now().UTC(),
	}

	if err := creation.Validate(); err != nil {
		return nil, err
	}

	return creation, nil
}

// Validate checks if the Creation has valid data.
func (c *Creation) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCreationID
	}

	if c.UserID == uuid.Nil {
		return ErrEmptyCreationUserID
	}

	if c.MediaURL == "" {
		return ErrEmptyMediaURL
	}

	if strings.TrimSpace(c.Prompt) == "" {
		return ErrEmptyPrompt
	}

	switch c.MediaType {
	case MediaTypeImage, MediaTypeVideo:
	default:
		return ErrInvalidMediaType
	}

	return nil
}

// MediaTypeForMIME derives the stored media type from a MIME type,
// defaulting to image for anything that is not explicitly video.
func MediaTypeForMIME(mimeType string) MediaType {
	if strings.HasPrefix(mimeType, "video/") {
		return MediaTypeVideo
	}
	return MediaTypeImage
}
