package generation

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMediaBytes = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a}

func encodedTestMedia() string {
	return base64.StdEncoding.EncodeToString(testMediaBytes)
}

func TestNewExtractor(t *testing.T) {
	t.Parallel()

	t.Run("known shapes", func(t *testing.T) {
		t.Parallel()
		for _, shape := range []string{ShapeCandidates, ShapeFlat} {
			extractor, err := NewExtractor(shape)
			require.NoError(t, err)
			assert.NotNil(t, extractor)
		}
	})

	t.Run("unknown shape", func(t *testing.T) {
		t.Parallel()
		_, err := NewExtractor("nested")
		assert.Error(t, err)
	})
}

func TestCandidatesExtractor(t *testing.T) {
	t.Parallel()

	extractor, err := NewExtractor(ShapeCandidates)
	require.NoError(t, err)

	t.Run("full response", func(t *testing.T) {
		t.Parallel()
		text := "**Analysis:** Relaxed fit.\n**Recommendation:** Layer it.\n**Tags:** #cozy #fall"
		raw := fmt.Sprintf(`{
			"candidates": [{"content": {"parts": [
				{"text": %q},
				{"inlineData": {"mimeType": "image/jpeg", "data": %q}}
			]}}]
		}`, text, encodedTestMedia())

		result, err := extractor.Extract(json.RawMessage(raw))
		require.NoError(t, err)

		assert.Equal(t, testMediaBytes, result.MediaData)
		assert.Equal(t, "image/jpeg", result.MIMEType)
		assert.Equal(t, "Relaxed fit.", result.AnalysisText)
		assert.Equal(t, "Layer it.", result.RecommendationText)
		assert.Equal(t, []string{"cozy", "fall"}, result.Tags)
	})

	t.Run("media before text part", func(t *testing.T) {
		t.Parallel()
		raw := fmt.Sprintf(`{
			"candidates": [{"content": {"parts": [
				{"inlineData": {"mimeType": "image/png", "data": %q}},
				{"text": "**Analysis:** Crisp."}
			]}}]
		}`, encodedTestMedia())

		result, err := extractor.Extract(json.RawMessage(raw))
		require.NoError(t, err)

		assert.Equal(t, testMediaBytes, result.MediaData)
		assert.Equal(t, "Crisp.", result.AnalysisText)
	})

	t.Run("missing text part defaults sections", func(t *testing.T) {
		t.Parallel()
		raw := fmt.Sprintf(`{
			"candidates": [{"content": {"parts": [
				{"inlineData": {"mimeType": "image/png", "data": %q}}
			]}}]
		}`, encodedTestMedia())

		result, err := extractor.Extract(json.RawMessage(raw))
		require.NoError(t, err)

		assert.Equal(t, "nothing", result.AnalysisText)
		assert.Equal(t, "nothing", result.RecommendationText)
		assert.Empty(t, result.Tags)
	})

	t.Run("no candidates", func(t *testing.T) {
		t.Parallel()
		_, err := extractor.Extract(json.RawMessage(`{"candidates": []}`))
		assert.ErrorIs(t, err, ErrMissingMedia)
	})

	t.Run("no inline data in any part", func(t *testing.T) {
		t.Parallel()
		raw := `{"candidates": [{"content": {"parts": [{"text": "words only"}]}}]}`
		_, err := extractor.Extract(json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrMissingMedia)
	})

	t.Run("invalid base64 payload", func(t *testing.T) {
		t.Parallel()
		raw := `{"candidates": [{"content": {"parts": [
			{"inlineData": {"mimeType": "image/png", "data": "!!!not-base64!!!"}}
		]}}]}`

		_, err := extractor.Extract(json.RawMessage(raw))

		var malformed *MalformedResponseError
		require.ErrorAs(t, err, &malformed)
		assert.NotEmpty(t, malformed.RawBody)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		t.Parallel()
		_, err := extractor.Extract(json.RawMessage(`{"candidates": [`))

		var malformed *MalformedResponseError
		assert.ErrorAs(t, err, &malformed)
	})
}

func TestFlatExtractor(t *testing.T) {
	t.Parallel()

	extractor, err := NewExtractor(ShapeFlat)
	require.NoError(t, err)

	t.Run("full response", func(t *testing.T) {
		t.Parallel()
		raw := fmt.Sprintf(`{
			"inlineData": %q,
			"mimeType": "image/webp",
			"fashion_tags": ["#bold", "#vintage"],
			"trend_insight": "Earth tones trending."
		}`, encodedTestMedia())

		result, err := extractor.Extract(json.RawMessage(raw))
		require.NoError(t, err)

		assert.Equal(t, testMediaBytes, result.MediaData)
		assert.Equal(t, "image/webp", result.MIMEType)
		assert.Equal(t, "nothing", result.AnalysisText)
		assert.Equal(t, "Earth tones trending.", result.RecommendationText)
		assert.Equal(t, []string{"bold", "vintage"}, result.Tags)
	})

	t.Run("defaults for absent optional fields", func(t *testing.T) {
		t.Parallel()
		raw := fmt.Sprintf(`{"inlineData": %q}`, encodedTestMedia())

		result, err := extractor.Extract(json.RawMessage(raw))
		require.NoError(t, err)

		assert.Equal(t, "image/png", result.MIMEType)
		assert.Equal(t, "No insight provided.", result.RecommendationText)
		assert.Empty(t, result.Tags)
	})

	t.Run("tags as single hashtag string", func(t *testing.T) {
		t.Parallel()
		raw := fmt.Sprintf(`{"inlineData": %q, "fashion_tags": "#casual #summer"}`,
			encodedTestMedia())

		result, err := extractor.Extract(json.RawMessage(raw))
		require.NoError(t, err)

		assert.Equal(t, []string{"casual", "summer"}, result.Tags)
	})

	t.Run("tags of unexpected type", func(t *testing.T) {
		t.Parallel()
		raw := fmt.Sprintf(`{"inlineData": %q, "fashion_tags": 42}`, encodedTestMedia())

		_, err := extractor.Extract(json.RawMessage(raw))

		var malformed *MalformedResponseError
		assert.ErrorAs(t, err, &malformed)
	})

	t.Run("missing inline data", func(t *testing.T) {
		t.Parallel()
		raw := `{"mimeType": "image/png", "trend_insight": "text but no media"}`
		_, err := extractor.Extract(json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrMissingMedia)
	})

	t.Run("invalid base64 payload", func(t *testing.T) {
		t.Parallel()
		_, err := extractor.Extract(json.RawMessage(`{"inlineData": "%%%"}`))

		var malformed *MalformedResponseError
		assert.ErrorAs(t, err, &malformed)
	})
}
