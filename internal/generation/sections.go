package generation

import "strings"

// The generation service labels its free-text output with literal section
// headers. Header matching is case-insensitive and tolerant of any amount of
// whitespace between sections.
const (
	headerAnalysis       = "**Analysis:**"
	headerRecommendation = "**Recommendation:**"
	headerTags           = "**Tags:**"
)

var knownHeaders = []string{headerAnalysis, headerRecommendation, headerTags}

// defaultSectionText is the fallback for sections that are absent or empty.
const defaultSectionText = "nothing"

// Sections is the structured form of the service's labeled free text.
type Sections struct {
	Analysis       string
	Recommendation string
	Tags           []string
}

// ParseSections extracts the Analysis, Recommendation and Tags sections from
// the service's annotated text. A section's content runs from its header to
// the next known header or end of text. Missing or empty Analysis and
// Recommendation sections default to "nothing"; a missing Tags section
// yields an empty list.
func ParseSections(text string) Sections {
	sections := Sections{
		Analysis:       defaultSectionText,
		Recommendation: defaultSectionText,
		Tags:           []string{},
	}

	if analysis, ok := sectionContent(text, headerAnalysis); ok {
		sections.Analysis = analysis
	}

	if recommendation, ok := sectionContent(text, headerRecommendation); ok {
		sections.Recommendation = recommendation
	}

	if tags, ok := sectionContent(text, headerTags); ok {
		sections.Tags = SplitHashtags(tags)
	}

	return sections
}

// sectionContent returns the trimmed content following the given header,
// up to the next known header. The second return is false when the header is
// absent or its content is empty.
func sectionContent(text, header string) (string, bool) {
	start := indexFold(text, header)
	if start < 0 {
		return "", false
	}

	content := text[start+len(header):]

	// Content ends at the next known header, whichever comes first.
	end := len(content)
	for _, other := range knownHeaders {
		if idx := indexFold(content, other); idx >= 0 && idx < end {
			end = idx
		}
	}

	trimmed := strings.TrimSpace(content[:end])
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

// indexFold is a case-insensitive strings.Index.
func indexFold(s, substr string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(substr))
}

// SplitHashtags splits a hashtag-delimited string ("#a #b") into a list of
// individually trimmed, non-empty tokens.
func SplitHashtags(s string) []string {
	parts := strings.Split(s, "#")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
