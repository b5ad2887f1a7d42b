package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dotdapp/dotd-api/internal/api/middleware"
	"github.com/dotdapp/dotd-api/internal/api/shared"
	"github.com/dotdapp/dotd-api/internal/service"
	"github.com/dotdapp/dotd-api/internal/store"
)

// Upload and pagination bounds
const (
	// maxUploadBytes caps the multipart form size for generation requests,
	// reference image included.
	maxUploadBytes = 10 << 20 // 10 MiB

	defaultPageLimit = 20
	maxPageLimit     = 100
)

// CreationHandler handles creation-related API requests: asynchronous
// generation, status polling, feed queries, likes, deletion and admin picks.
type CreationHandler struct {
	creationService *service.CreationService
	userService     service.UserService
}

// NewCreationHandler creates a new CreationHandler with the given dependencies.
func NewCreationHandler(
	creationService *service.CreationService,
	userService service.UserService,
) *CreationHandler {
	return &CreationHandler{
		creationService: creationService,
		userService:     userService,
	}
}

// CreateTask handles POST /api/create_task. It accepts a multipart form with
// a prompt and optional reference image, enqueues a generation task, and
// returns 202 with the task ID immediately. The caller polls TaskStatus for
// the outcome.
func (h *CreationHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	prompt := strings.TrimSpace(r.FormValue("prompt"))
	if prompt == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Prompt is required")
		return
	}

	params := service.GenerationParams{
		Prompt:   prompt,
		Gender:   r.FormValue("gender"),
		AgeGroup: r.FormValue("age_group"),
		IsPublic: parseBoolDefault(r.FormValue("is_public"), true),
	}

	if err := h.attachImage(r, &params); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Failed to read uploaded image")
		return
	}

	taskID, err := h.creationService.StartGeneration(r.Context(), userID, params)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, TaskCreatedResponse{TaskID: taskID})
}

// attachImage reads the optional "image" file part into the params.
func (h *CreationHandler) attachImage(r *http.Request, params *service.GenerationParams) error {
	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil
		}
		return err
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	params.ImageData = data
	params.ImageFilename = header.Filename
	params.ImageMIMEType = imageContentType(header)

	return nil
}

// imageContentType takes the part's declared Content-Type, defaulting to
// octet-stream when the client sent none.
func imageContentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// TaskStatus handles GET /api/task_status/{taskID}. Unknown task IDs get 404;
// the in-memory registry forgets nothing short of a restart, so an unknown ID
// is a caller error.
func (h *CreationHandler) TaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	snapshot, ok := h.creationService.TaskStatus(taskID)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskStatusResponse{
		TaskID: taskID,
		Status: snapshot.Status,
		Result: snapshot.Result,
	})
}

// Quota handles GET /api/users/me/quota, reporting the caller's generation
// usage against the daily limit.
func (h *CreationHandler) Quota(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	status, err := h.creationService.Quota(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to check quota", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, status)
}

// Feed handles GET /api/creations/feed. The endpoint is public; callers who
// do present a valid token get per-record is_liked flags.
func (h *CreationHandler) Feed(w http.ResponseWriter, r *http.Request) {
	sort := store.FeedSortLatest
	if r.URL.Query().Get("sort_by") == string(store.FeedSortPopular) {
		sort = store.FeedSortPopular
	}
	limit, offset := parsePagination(r)

	viewerID, _ := middleware.GetUserID(r)

	creations, err := h.creationService.Feed(r.Context(), viewerID, sort, limit, offset)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to load feed", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, creations)
}

// MyCreations handles GET /api/users/me/creations.
func (h *CreationHandler) MyCreations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	limit, offset := parsePagination(r)

	creations, err := h.creationService.UserCreations(r.Context(), userID, limit, offset)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to load creations", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, creations)
}

// Picked handles GET /api/creations/picked.
func (h *CreationHandler) Picked(w http.ResponseWriter, r *http.Request) {
	limit, _ := parsePagination(r)

	creations, err := h.creationService.PickedCreations(r.Context(), limit)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to load picked creations", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, creations)
}

// Like handles POST /api/creations/{creationID}/like.
func (h *CreationHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID, creationID, ok := h.likeParams(w, r)
	if !ok {
		return
	}

	if err := h.creationService.Like(r.Context(), userID, creationID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Unlike handles DELETE /api/creations/{creationID}/like.
func (h *CreationHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	userID, creationID, ok := h.likeParams(w, r)
	if !ok {
		return
	}

	if err := h.creationService.Unlike(r.Context(), userID, creationID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/creations/{creationID}. Only the owner or an
// admin may delete a creation.
func (h *CreationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	creationID, err := uuid.Parse(chi.URLParam(r, "creationID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid creation ID")
		return
	}

	actor, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	if err := h.creationService.Delete(r.Context(), actor, creationID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AdminPickRequest defines the payload for the admin pick endpoint.
type AdminPickRequest struct {
	Picked bool `json:"picked"`
}

// SetAdminPick handles PUT /api/admin/creations/{creationID}/pick.
// Routing guarantees the caller holds the admin role.
func (h *CreationHandler) SetAdminPick(w http.ResponseWriter, r *http.Request) {
	creationID, err := uuid.Parse(chi.URLParam(r, "creationID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid creation ID")
		return
	}

	var req AdminPickRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.creationService.SetAdminPick(r.Context(), creationID, req.Picked); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// likeParams extracts the authenticated user and the creation path parameter
// for the like endpoints, writing the error response itself on failure.
func (h *CreationHandler) likeParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}

	creationID, err := uuid.Parse(chi.URLParam(r, "creationID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid creation ID")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, creationID, true
}

// parsePagination reads limit/offset query parameters with sane bounds.
func parsePagination(r *http.Request) (limit, offset int) {
	limit = defaultPageLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
		if limit > maxPageLimit {
			limit = maxPageLimit
		}
	}

	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}

	return limit, offset
}

// parseBoolDefault parses a form bool value, returning the default for empty
// or unparseable input.
func parseBoolDefault(value string, def bool) bool {
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}
