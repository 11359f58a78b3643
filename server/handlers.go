package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"musewave/config"
	"musewave/db"
	"musewave/logger"
	"musewave/model"
	"musewave/repository"
)

// Generator runs one generation request through the pipeline.
type Generator interface {
	Generate(ctx context.Context, req *model.GenerationRequest) (*model.GenerationResult, error)
}

// APIHandler holds the dependencies of the HTTP endpoints.
type APIHandler struct {
	generator   Generator
	projectRepo repository.ProjectRepository
	cfg         *config.Config
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(generator Generator, projectRepo repository.ProjectRepository, cfg *config.Config) *APIHandler {
	return &APIHandler{
		generator:   generator,
		projectRepo: projectRepo,
		cfg:         cfg,
	}
}

type generateResponse struct {
	Success   bool      `json:"success"`
	ProjectID string    `json:"project_id"`
	Prompt    string    `json:"prompt"`
	AudioURL  string    `json:"audio_url"`
	VideoURL  string    `json:"video_url"`
	CreatedAt time.Time `json:"created_at"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}

// GenerateHandler handles POST /api/generate. It runs the full pipeline
// synchronously and returns the published artifact URLs.
func (h *APIHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	var req model.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.generator.Generate(r.Context(), &req)
	if err != nil {
		logger.Error("Generation failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Success:   true,
		ProjectID: result.ProjectID,
		Prompt:    result.Prompt,
		AudioURL:  result.AudioURL,
		VideoURL:  result.VideoURL,
		CreatedAt: result.CreatedAt,
	})
}

// ListProjectsHandler handles GET /api/projects, newest first. The optional
// limit query parameter caps the result size.
func (h *APIHandler) ListProjectsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	records, err := h.projectRepo.ListProjects(r.Context(), limit)
	if err != nil {
		logger.Error("Failed to list projects", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"projects": records,
	})
}

// ListProjectsWindowHandler handles GET /api/projects/window: records created
// from the configured application start date up to now. A missing or invalid
// bound is a deployment fault and reported as such.
func (h *APIHandler) ListProjectsWindowHandler(w http.ResponseWriter, r *http.Request) {
	if h.cfg.ProjectsCreatedFrom == "" {
		writeError(w, http.StatusInternalServerError, "projects window lower bound not configured")
		return
	}

	from, err := time.Parse(time.RFC3339, h.cfg.ProjectsCreatedFrom)
	if err != nil {
		logger.Error("Invalid projects window configuration",
			logger.String("value", h.cfg.ProjectsCreatedFrom),
			logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "projects window lower bound misconfigured")
		return
	}

	records, err := h.projectRepo.ListProjectsCreatedBetween(r.Context(), from, time.Now().UTC())
	if err != nil {
		logger.Error("Failed to list projects window", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"from":     from,
		"projects": records,
	})
}

// GetProjectHandler handles GET /api/projects/{id}.
func (h *APIHandler) GetProjectHandler(w http.ResponseWriter, r *http.Request, projectID string) {
	record, err := h.projectRepo.GetProjectByID(r.Context(), projectID)
	if err != nil {
		logger.Error("Failed to fetch project",
			logger.String("projectId", projectID),
			logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch project")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"project": record,
	})
}

// HealthHandler handles GET /api/health. Reports per-dependency status so a
// degraded deployment is visible before the first generation fails.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"database": "ok",
		"redis":    "ok",
		"provider": "ok",
	}
	healthy := true

	if db.DB == nil {
		status["database"] = "unavailable"
		healthy = false
	}
	if db.RedisClient == nil {
		status["redis"] = "unavailable"
	} else if err := db.RedisClient.Ping(r.Context()).Err(); err != nil {
		status["redis"] = "unreachable"
	}
	if h.cfg.MusicGenAPIURL == "" {
		status["provider"] = "not configured"
		healthy = false
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"success": healthy,
		"status":  status,
	})
}
