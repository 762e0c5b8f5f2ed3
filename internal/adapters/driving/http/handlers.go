package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// ReadyResponse reports per-backend readiness
// @Description Readiness of each backend
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks"`
}

// ChunkTargetRequest names a chunk to navigate to
// @Description Chunk navigation target
type ChunkTargetRequest struct {
	ChunkID int64 `json:"chunk_id" validate:"required,gt=0" example:"42"`
}

const maxBodyBytes = 1 << 20

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Checks PostgreSQL, Redis and the task queue
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := ReadyResponse{Status: "ready", Checks: make(map[string]string)}
	check := func(name string, p Pinger) {
		if p == nil {
			return
		}
		if err := p.Ping(ctx); err != nil {
			resp.Status = "unavailable"
			resp.Checks[name] = err.Error()
			return
		}
		resp.Checks[name] = "ok"
	}
	check("postgres", s.infra.DB)
	check("redis", s.infra.Redis)
	if s.infra.Queue != nil {
		check("queue", s.infra.Queue)
	}

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

func (s *Server) handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := s.infra.Docs()
	if err != nil {
		s.logger.Error("read swagger doc", "error", err)
		writeError(w, http.StatusInternalServerError, "swagger doc unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, doc)
}

// handleImageFile serves a stored image. The content type is sniffed from the
// file itself since paths are chosen before the bytes exist.
func (s *Server) handleImageFile(w http.ResponseWriter, r *http.Request) {
	path := "/images/" + r.PathValue("path")

	rc, err := s.infra.Files.Open(r.Context(), path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusNotFound, "image not found")
			return
		}
		s.logger.Error("open image file", "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read image")
		return
	}
	defer rc.Close()

	head := make([]byte, 3072)
	n, err := io.ReadFull(rc, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusInternalServerError, "failed to read image")
		return
	}
	head = head[:n]

	w.Header().Set("Content-Type", mimetype.Detect(head).String())
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, io.MultiReader(bytes.NewReader(head), rc))
}

// Auth endpoints

// handleLogin godoc
// @Summary      User login
// @Description  Authenticate with email and password to receive a JWT token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.LoginRequest  true  "Login credentials"
// @Success      200      {object}  domain.LoginResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Invalid credentials or account disabled"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /auth/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp, err := s.authService.Authenticate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, domain.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "account disabled")
		default:
			s.logger.Error("authentication failed", "error", err)
			writeError(w, http.StatusInternalServerError, "authentication failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Setup endpoint (no auth required, one-time use)

// handleSetup godoc
// @Summary      Initial setup
// @Description  Create the initial admin user. This endpoint can only be called once when no users exist.
// @Tags         Setup
// @Accept       json
// @Produce      json
// @Param        request  body      driving.CreateUserRequest  true  "Admin user details"
// @Success      201      {object}  domain.UserSummary
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Failure      403      {object}  ErrorResponse  "Setup already complete"
// @Router       /setup [post]
func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req driving.CreateUserRequest
	if !s.decode(w, r, &req) {
		return
	}

	user, err := s.userService.Setup(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			writeError(w, http.StatusForbidden, "setup already complete")
			return
		}
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user.ToSummary())
}

// User endpoints

// handleGetMe godoc
// @Summary      Get current user
// @Description  Get the currently authenticated user's profile
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.UserSummary
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "User not found"
// @Router       /me [get]
func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}

	user, err := s.userService.Get(r.Context(), authCtx.UserID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user.ToSummary())
}

// handleListUsers godoc
// @Summary      List users
// @Description  List all users (admin only)
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.UserSummary
// @Failure      403  {object}  ErrorResponse  "Admin access required"
// @Router       /users [get]
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.userService.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	summaries := make([]*domain.UserSummary, len(users))
	for i, u := range users {
		summaries[i] = u.ToSummary()
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handleQueueStats godoc
// @Summary      Task queue statistics
// @Description  Counts image write tasks by status (admin only)
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  driven.QueueStats
// @Failure      403  {object}  ErrorResponse  "Admin access required"
// @Failure      503  {object}  ErrorResponse  "No task queue configured"
// @Router       /admin/queue [get]
func (s *Server) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	if s.infra.Queue == nil {
		writeError(w, http.StatusServiceUnavailable, "task queue not configured")
		return
	}

	stats, err := s.infra.Queue.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleCreateUser godoc
// @Summary      Create user
// @Description  Create a new user (admin only)
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.CreateUserRequest  true  "User details"
// @Success      201      {object}  domain.UserSummary
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Failure      409      {object}  ErrorResponse  "User already exists"
// @Router       /users [post]
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req driving.CreateUserRequest
	if !s.decode(w, r, &req) {
		return
	}

	user, err := s.userService.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user.ToSummary())
}

// Metatext endpoints

// handleListMetatexts godoc
// @Summary      List metatexts
// @Description  List the caller's metatexts, newest first
// @Tags         Metatexts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Metatext
// @Router       /metatexts [get]
func (s *Server) handleListMetatexts(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}

	metatexts, err := s.metatextService.List(r.Context(), authCtx.UserID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if metatexts == nil {
		metatexts = []*domain.Metatext{}
	}

	writeJSON(w, http.StatusOK, metatexts)
}

// handleGetMetatext godoc
// @Summary      Get metatext
// @Description  Get a metatext with its chunks in position order
// @Tags         Metatexts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Metatext ID"
// @Success      200  {object}  domain.MetatextWithChunks
// @Failure      404  {object}  ErrorResponse  "Metatext not found"
// @Router       /metatexts/{id} [get]
func (s *Server) handleGetMetatext(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	metatext, err := s.metatextService.GetWithChunks(r.Context(), authCtx.UserID, id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, metatext)
}

// Chunk view endpoints

// handleGetView godoc
// @Summary      Get chunk view
// @Description  Returns the current page window. A pending navigation request is applied first.
// @Tags         Views
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Metatext ID"
// @Success      200  {object}  domain.PageWindow
// @Failure      404  {object}  ErrorResponse  "Metatext not found"
// @Router       /metatexts/{id}/view [get]
func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	window, err := s.viewService.GetWindow(r.Context(), authCtx.UserID, id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, window)
}

// handleUpdateView godoc
// @Summary      Update chunk view
// @Description  Change the search query, favorites filter, page or page size
// @Tags         Views
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                true  "Metatext ID"
// @Param        request  body      domain.ViewUpdate  true  "View changes"
// @Success      200      {object}  domain.PageWindow
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Failure      404      {object}  ErrorResponse  "Metatext not found"
// @Router       /metatexts/{id}/view [patch]
func (s *Server) handleUpdateView(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var update domain.ViewUpdate
	if !s.decode(w, r, &update) {
		return
	}

	window, err := s.viewService.UpdateView(r.Context(), authCtx.UserID, id, update)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, window)
}

// handleGoToChunk godoc
// @Summary      Go to chunk
// @Description  Move the view to the page holding a chunk
// @Tags         Views
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                 true  "Metatext ID"
// @Param        request  body      ChunkTargetRequest  true  "Target chunk"
// @Success      200      {object}  domain.PageWindow
// @Router       /metatexts/{id}/view/goto [post]
func (s *Server) handleGoToChunk(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ChunkTargetRequest
	if !s.decode(w, r, &req) {
		return
	}

	window, err := s.viewService.GoToChunk(r.Context(), authCtx.UserID, id, req.ChunkID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, window)
}

// handleRequestNavigation godoc
// @Summary      Request navigation
// @Description  Record a one-shot navigation applied by the next view fetch
// @Tags         Views
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                 true  "Metatext ID"
// @Param        request  body      ChunkTargetRequest  true  "Target chunk"
// @Success      202      {object}  StatusResponse
// @Router       /metatexts/{id}/navigation [post]
func (s *Server) handleRequestNavigation(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ChunkTargetRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.viewService.RequestNavigation(r.Context(), authCtx.UserID, id, req.ChunkID); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, StatusResponse{Status: "pending"})
}

// handleGoToBookmark godoc
// @Summary      Go to bookmark
// @Description  Move the view to the caller's bookmarked chunk
// @Tags         Views
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Metatext ID"
// @Success      200  {object}  domain.PageWindow
// @Failure      404  {object}  ErrorResponse  "No bookmark set"
// @Router       /metatexts/{id}/bookmark/goto [post]
func (s *Server) handleGoToBookmark(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	window, err := s.viewService.GoToBookmark(r.Context(), authCtx.UserID, id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, window)
}

// Chunk markers

// handleSetFavorite godoc
// @Summary      Favorite chunk
// @Description  PUT marks a chunk as favorite, DELETE unmarks it
// @Tags         Chunks
// @Security     BearerAuth
// @Param        id   path  int  true  "Chunk ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse  "Chunk not found"
// @Router       /chunks/{id}/favorite [put]
// @Router       /chunks/{id}/favorite [delete]
func (s *Server) handleSetFavorite(favorite bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authCtx := requireAuth(w, r)
		if authCtx == nil {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := s.viewService.SetFavorite(r.Context(), authCtx.UserID, id, favorite); err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleSetBookmark godoc
// @Summary      Bookmark chunk
// @Description  PUT moves the caller's bookmark to a chunk, DELETE removes it
// @Tags         Chunks
// @Security     BearerAuth
// @Param        id   path  int  true  "Chunk ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse  "Chunk not found"
// @Router       /chunks/{id}/bookmark [put]
// @Router       /chunks/{id}/bookmark [delete]
func (s *Server) handleSetBookmark(bookmarked bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authCtx := requireAuth(w, r)
		if authCtx == nil {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := s.viewService.SetBookmark(r.Context(), authCtx.UserID, id, bookmarked); err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Image endpoints

// handleGenerateImage godoc
// @Summary      Generate image
// @Description  Generate an image for a chunk. The file is written asynchronously; poll its availability with the returned poll id.
// @Tags         Images
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                           true  "Chunk ID"
// @Param        request  body      driving.GenerateImageRequest  true  "Prompt"
// @Success      202      {object}  domain.ImageGeneration
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Failure      503      {object}  ErrorResponse  "Image generator unavailable"
// @Router       /chunks/{id}/images [post]
func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req driving.GenerateImageRequest
	if !s.decode(w, r, &req) {
		return
	}

	generation, err := s.imageService.Generate(r.Context(), authCtx.UserID, id, req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, generation)
}

// handleListImages godoc
// @Summary      List chunk images
// @Description  All images of a chunk, newest first
// @Tags         Images
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Chunk ID"
// @Success      200  {array}   domain.AiImage
// @Router       /chunks/{id}/images [get]
func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	images, err := s.imageService.ListImages(r.Context(), authCtx.UserID, id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if images == nil {
		images = []*domain.AiImage{}
	}

	writeJSON(w, http.StatusOK, images)
}

// handleLatestImage godoc
// @Summary      Latest chunk image
// @Description  The most recently created image of a chunk
// @Tags         Images
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Chunk ID"
// @Success      200  {object}  domain.AiImage
// @Failure      404  {object}  ErrorResponse  "No image"
// @Router       /chunks/{id}/images/latest [get]
func (s *Server) handleLatestImage(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	image, err := s.imageService.LatestImage(r.Context(), authCtx.UserID, id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, image)
}

// handleGetPoll godoc
// @Summary      Get image poll
// @Description  State of an image availability poll: polling, resolved, timed_out or cancelled
// @Tags         Images
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Poll ID"
// @Success      200  {object}  domain.ImagePoll
// @Failure      404  {object}  ErrorResponse  "Poll not found"
// @Router       /image-polls/{id} [get]
func (s *Server) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}

	poll, err := s.imageService.GetPoll(r.Context(), authCtx.UserID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, poll)
}

// handleCancelPoll godoc
// @Summary      Abort image poll
// @Description  Stop an image availability poll. Aborting a finished poll returns its final state.
// @Tags         Images
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Poll ID"
// @Success      200  {object}  domain.ImagePoll
// @Failure      404  {object}  ErrorResponse  "Poll not found"
// @Router       /image-polls/{id} [delete]
func (s *Server) handleCancelPoll(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}

	poll, err := s.imageService.CancelPoll(r.Context(), authCtx.UserID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, poll)
}

// Helper functions

// decode reads a JSON body into v and validates it.
// It writes a 400 and returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid input: "+err.Error())
		return false
	}
	return true
}

// writeServiceError maps domain errors to status codes
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNoBookmark):
		writeError(w, http.StatusNotFound, "no bookmark set")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "image generator unavailable")
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requireAuth returns the auth context or writes a 401
func requireAuth(w http.ResponseWriter, r *http.Request) *domain.AuthContext {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
	}
	return authCtx
}

// pathID parses the {id} path value as a positive integer
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
