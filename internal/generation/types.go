package generation

import (
	"context"
	"encoding/json"
)

// Request is the normalized set of fields sent to the generation service.
// It is ephemeral: built by the request handler, consumed by one pipeline
// run, never persisted.
type Request struct {
	Prompt   string
	Gender   string
	AgeGroup string
	IsPublic bool

	// ImageData holds the optional reference image uploaded by the user.
	// When present, ImageMIMEType and ImageFilename describe it.
	ImageData     []byte
	ImageMIMEType string
	ImageFilename string
}

// HasImage reports whether the request carries a reference image.
func (r *Request) HasImage() bool {
	return len(r.ImageData) > 0
}

// Result is the normalized output of a successful generation call:
// the decoded media payload plus the styling annotations extracted from
// the service's free-form output.
type Result struct {
	MediaData          []byte
	MIMEType           string
	AnalysisText       string
	RecommendationText string
	Tags               []string
}

// Client performs a single call to the external generation service and
// returns the raw JSON response body. Implementations make exactly one
// attempt; retry policy, if any, belongs to the caller.
type Client interface {
	Generate(ctx context.Context, req *Request) (json.RawMessage, error)
}

// Extractor parses a raw generation response into a Result. Which response
// shape an Extractor understands is fixed at construction; the active shape
// is a deployment compatibility concern, not a per-request decision.
type Extractor interface {
	Extract(raw json.RawMessage) (*Result, error)
}
