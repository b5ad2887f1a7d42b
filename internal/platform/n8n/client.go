// Package n8n implements the generation.Client interface against the n8n
// webhook that fronts the actual content generation. The webhook accepts a
// multipart form (text fields plus an optional image file) and answers with
// the generation service's JSON output.
package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/dotdapp/dotd-api/internal/config"
	"github.com/dotdapp/dotd-api/internal/generation"
)

// maxErrorBodyBytes caps how much of an upstream error body is retained for
// diagnostics.
const maxErrorBodyBytes = 4096

// Client calls the configured n8n webhook. One attempt per call; retry
// policy, if any, belongs to the caller.
type Client struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// Ensure Client implements generation.Client
var _ generation.Client = (*Client)(nil)

// NewClient creates a webhook client from configuration.
func NewClient(cfg config.GenerationConfig, logger *slog.Logger) (*Client, error) {
	if cfg.WebhookURL == "" {
		return nil, errors.New("webhook URL cannot be empty")
	}
	if cfg.TimeoutSeconds <= 0 {
		return nil, errors.New("generation timeout must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}, nil
}

// Generate performs a single multipart POST to the webhook and returns the
// parsed-for-validity raw JSON body. Failures map to the pipeline taxonomy:
// TransportError for connection/timeout problems, UpstreamError for non-2xx
// answers, MalformedResponseError for bodies that are not valid JSON.
func (c *Client) Generate(ctx context.Context, req *generation.Request) (json.RawMessage, error) {
	body, contentType, err := encodeForm(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode generation form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	c.logger.DebugContext(ctx, "calling generation webhook",
		"prompt_length", len(req.Prompt),
		"has_image", req.HasImage())

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &generation.TransportError{Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.WarnContext(ctx, "failed to close webhook response body", "error", closeErr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &generation.TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &generation.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       truncate(respBody, maxErrorBodyBytes),
		}
	}

	if !json.Valid(respBody) {
		return nil, &generation.MalformedResponseError{
			RawBody: string(respBody),
			Err:     errors.New("response body is not valid JSON"),
		}
	}

	c.logger.DebugContext(ctx, "generation webhook call succeeded",
		"duration_ms", time.Since(start).Milliseconds(),
		"response_bytes", len(respBody))

	return json.RawMessage(respBody), nil
}

// encodeForm builds the multipart body: every text field as a form field,
// the optional image as a file part named and typed per its declared
// filename and MIME type.
func encodeForm(req *generation.Request) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := map[string]string{
		"prompt":    req.Prompt,
		"gender":    req.Gender,
		"age_group": req.AgeGroup,
	}
	if req.HasImage() {
		fields["content_type"] = req.ImageMIMEType
	}

	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}

	if req.HasImage() {
		part, err := createImagePart(writer, req.ImageFilename, req.ImageMIMEType)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(req.ImageData); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return &buf, writer.FormDataContentType(), nil
}

// createImagePart creates the image file part with an explicit Content-Type,
// which CreateFormFile cannot set.
func createImagePart(writer *multipart.Writer, filename, mimeType string) (io.Writer, error) {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	if mimeType != "" {
		header.Set("Content-Type", mimeType)
	}
	return writer.CreatePart(header)
}

func truncate(b []byte, limit int) string {
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit])
}
