package generation

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Response shape identifiers, matching the generation.response_shape config.
const (
	ShapeCandidates = "candidates"
	ShapeFlat       = "flat"
)

// defaultFlatMIMEType is assumed when the flat shape omits a MIME type.
const defaultFlatMIMEType = "image/png"

// defaultInsightText is the placeholder for a flat response without insight.
const defaultInsightText = "No insight provided."

// NewExtractor returns the Extractor for the given response shape.
func NewExtractor(shape string) (Extractor, error) {
	switch shape {
	case ShapeCandidates:
		return &candidatesExtractor{}, nil
	case ShapeFlat:
		return &flatExtractor{}, nil
	default:
		return nil, fmt.Errorf("unknown response shape %q", shape)
	}
}

// candidatesExtractor handles the embedded-candidate response form: the
// generated media and annotation text are nested inside the first
// candidate's content parts.
type candidatesExtractor struct{}

type candidatesResponse struct {
	Candidates []struct {
		Content struct {
			Parts []responsePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type responsePart struct {
	Text       string      `json:"text"`
	InlineData *inlineData `json:"inlineData"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

func (e *candidatesExtractor) Extract(raw json.RawMessage) (*Result, error) {
	var resp candidatesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &MalformedResponseError{RawBody: string(raw), Err: err}
	}

	if len(resp.Candidates) == 0 {
		return nil, ErrMissingMedia
	}

	parts := resp.Candidates[0].Content.Parts

	// The media lives in the first part exposing inline data; the
	// annotation text in the first non-empty text part. The service does
	// not guarantee an order for either.
	var media *inlineData
	var text string
	for _, part := range parts {
		if media == nil && part.InlineData != nil && part.InlineData.Data != "" {
			media = part.InlineData
		}
		if text == "" && part.Text != "" {
			text = part.Text
		}
	}

	if media == nil {
		return nil, ErrMissingMedia
	}

	data, err := base64.StdEncoding.DecodeString(media.Data)
	if err != nil {
		return nil, &MalformedResponseError{
			RawBody: string(raw),
			Err:     fmt.Errorf("inline data is not valid base64: %w", err),
		}
	}

	sections := ParseSections(text)

	return &Result{
		MediaData:          data,
		MIMEType:           media.MimeType,
		AnalysisText:       sections.Analysis,
		RecommendationText: sections.Recommendation,
		Tags:               sections.Tags,
	}, nil
}

// flatExtractor handles the flat response form: media payload, MIME type,
// tags and insight as top-level fields.
type flatExtractor struct{}

type flatResponse struct {
	InlineData   string          `json:"inlineData"`
	MimeType     string          `json:"mimeType"`
	FashionTags  json.RawMessage `json:"fashion_tags"`
	TrendInsight string          `json:"trend_insight"`
}

func (e *flatExtractor) Extract(raw json.RawMessage) (*Result, error) {
	var resp flatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &MalformedResponseError{RawBody: string(raw), Err: err}
	}

	if resp.InlineData == "" {
		return nil, ErrMissingMedia
	}

	data, err := base64.StdEncoding.DecodeString(resp.InlineData)
	if err != nil {
		return nil, &MalformedResponseError{
			RawBody: string(raw),
			Err:     fmt.Errorf("inline data is not valid base64: %w", err),
		}
	}

	mimeType := resp.MimeType
	if mimeType == "" {
		mimeType = defaultFlatMIMEType
	}

	tags, err := normalizeTags(resp.FashionTags)
	if err != nil {
		return nil, &MalformedResponseError{
			RawBody: string(raw),
			Err:     fmt.Errorf("unrecognized fashion_tags value: %w", err),
		}
	}

	insight := resp.TrendInsight
	if insight == "" {
		insight = defaultInsightText
	}

	return &Result{
		MediaData:          data,
		MIMEType:           mimeType,
		AnalysisText:       defaultSectionText,
		RecommendationText: insight,
		Tags:               tags,
	}, nil
}

// normalizeTags accepts the tag field in either of the forms the service has
// shipped over time: a JSON list of strings, or a single hashtag-delimited
// string. Both normalize to a list of trimmed non-empty tokens.
func normalizeTags(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return []string{}, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		tags := make([]string, 0, len(list))
		for _, tag := range list {
			tags = append(tags, SplitHashtags(tag)...)
		}
		return tags, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return SplitHashtags(s), nil
}
