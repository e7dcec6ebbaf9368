package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/englishquiz/internal/auth"
	"github.com/pavelanni/englishquiz/internal/handler/views"
	"github.com/pavelanni/englishquiz/internal/model"
	"github.com/pavelanni/englishquiz/internal/scoring"
	"github.com/pavelanni/englishquiz/internal/store"
)

const maxBodyBytes = 1 << 20

// QuestionCache is a read-through view of the question set.
type QuestionCache interface {
	ListQuestions(ctx context.Context) ([]model.Question, error)
	Invalidate(ctx context.Context) error
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	tokens *auth.Issuer
	cache  QuestionCache
	config model.ServerConfig
}

// New creates a new Handler.
func New(s *store.Store, tokens *auth.Issuer, cfg model.ServerConfig) (*Handler, error) {
	if s == nil || tokens == nil {
		return nil, errors.New("handler: store and token issuer are required")
	}
	return &Handler{store: s, tokens: tokens, config: cfg}, nil
}

// UseQuestionCache serves question reads through c. Writes invalidate it.
func (h *Handler) UseQuestionCache(c QuestionCache) {
	h.cache = c
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Get("/", h.handleIndex)
	r.Get("/admin/login", h.handleLoginPage)
	r.With(h.requireAdminPage).Get("/admin/dashboard", h.handleDashboard)

	r.Route("/api", func(r chi.Router) {
		r.Get("/questions", h.handleListQuestions)
		r.Post("/submissions", h.handleCreateSubmission)
		r.Post("/auth/login", h.handleLogin)
		r.Post("/auth/logout", h.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Post("/questions", h.handleCreateQuestion)
			r.Post("/admin/questions/import", h.handleImportQuestions)
			r.Get("/admin/submissions", h.handleListSubmissions)
			r.Get("/admin/stats", h.handleStats)
		})
	})
}

func (h *Handler) listQuestions(ctx context.Context) ([]model.Question, error) {
	if h.cache != nil {
		return h.cache.ListQuestions(ctx)
	}
	return h.store.ListQuestions(ctx)
}

func (h *Handler) invalidateQuestions(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx); err != nil {
		slog.Warn("failed to invalidate question cache", "error", err)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		slog.Error("health check failed", "error", err)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	questions, err := h.listQuestions(r.Context())
	if err != nil {
		slog.Error("failed to list questions", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	render(w, r, http.StatusOK, views.IndexPage(len(questions)))
}

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.listQuestions(r.Context())
	if err != nil {
		slog.Error("failed to list questions", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch questions")
		return
	}
	if len(questions) == 0 {
		writeError(w, http.StatusNotFound, "No questions found")
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *Handler) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var qi model.QuestionImport
	if err := decodeJSON(w, r, &qi); err != nil {
		respondError(w, err)
		return
	}
	if err := model.Validate(qi); err != nil {
		respondError(w, err)
		return
	}

	q := qi.Question()
	id, err := h.store.InsertQuestion(r.Context(), q)
	if err != nil {
		slog.Error("failed to insert question", "error", err)
		respondError(w, err)
		return
	}
	h.invalidateQuestions(r.Context())

	q.ID = id
	adminID, _ := model.AdminIDFromContext(r.Context())
	slog.Info("question added", "id", id, "admin", adminID)
	writeJSON(w, http.StatusCreated, q)
}

// handleCreateSubmission scores the posted answers against the stored
// question set and records the attempt. The client's own score is never
// trusted.
func (h *Handler) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req model.SubmissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := model.Validate(req); err != nil {
		respondError(w, err)
		return
	}

	questions, err := h.store.ListQuestions(r.Context())
	if err != nil {
		slog.Error("failed to load questions for scoring", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save submission")
		return
	}
	res := scoring.Evaluate(questions, req.Answers)

	sub, err := h.store.CreateSubmission(r.Context(), model.Submission{
		StudentName:    strings.TrimSpace(req.StudentName),
		Answers:        req.Answers,
		Score:          res.Score,
		TotalQuestions: res.Total,
		Percentage:     res.Percentage,
		TimeSpent:      req.TimeSpent,
	})
	if err != nil {
		slog.Error("failed to save submission", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save submission")
		return
	}

	slog.Info("submission saved", "id", sub.ID, "score", sub.Score, "total", sub.TotalQuestions)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Submission saved successfully",
		"submission": model.SubmissionCreated{
			ID:             sub.ID,
			StudentName:    sub.StudentName,
			Score:          sub.Score,
			TotalQuestions: sub.TotalQuestions,
			Percentage:     sub.Percentage,
		},
	})
}

func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// respondError maps err onto the error taxonomy.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, strings.Replace(err.Error(), model.ErrValidation.Error()+": ", "", 1))
	case errors.Is(err, model.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, model.ErrNoQuestions):
		writeError(w, http.StatusNotFound, "No questions found")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", model.ErrValidation, err)
	}
	return nil
}
