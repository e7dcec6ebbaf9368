package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/pavelanni/englishquiz/internal/handler/views"
	"github.com/pavelanni/englishquiz/internal/model"
	"github.com/pavelanni/englishquiz/internal/report"
)

func (h *Handler) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.store.ListSubmissionSummaries(r.Context())
	if err != nil {
		slog.Error("failed to list submissions", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch submissions")
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	subs, err := h.store.ListSubmissionSummaries(r.Context())
	if err != nil {
		slog.Error("failed to list submissions", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch submissions")
		return
	}
	writeJSON(w, http.StatusOK, report.Summarize(subs))
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	subs, err := h.store.ListSubmissionSummaries(r.Context())
	if err != nil {
		slog.Error("failed to list submissions", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	render(w, r, http.StatusOK, views.DashboardPage(report.Summarize(subs), subs))
}

type importResult struct {
	Imported  int  `json:"imported"`
	Duplicate bool `json:"duplicate"`
}

// handleImportQuestions loads a JSON array of questions, either uploaded as
// the multipart field "questions_file" or sent as the request body. A file
// whose content was already imported under the same name is skipped. A file
// whose content changed since it was imported is rejected: stored answers
// are matched to questions by position.
func (h *Handler) handleImportQuestions(w http.ResponseWriter, r *http.Request) {
	name, data, err := readImport(w, r)
	if err != nil {
		respondError(w, err)
		return
	}

	hashBytes := sha256.Sum256(data)
	hash := hex.EncodeToString(hashBytes[:])

	storedHash, err := h.store.GetImportedFileHash(r.Context(), name)
	if err != nil {
		slog.Error("failed to check import status", "error", err)
		respondError(w, err)
		return
	}
	if storedHash == hash {
		writeJSON(w, http.StatusOK, importResult{Duplicate: true})
		return
	}
	if storedHash != "" {
		slog.Warn("rejected changed questions file", "filename", name)
		writeError(w, http.StatusConflict, "A different file was already imported under this name")
		return
	}

	var imports []model.QuestionImport
	if err := json.Unmarshal(data, &imports); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	for i, qi := range imports {
		if err := model.Validate(qi); err != nil {
			respondError(w, fmt.Errorf("question %d: %w", i+1, err))
			return
		}
	}

	questions := make([]model.Question, len(imports))
	for i, qi := range imports {
		questions[i] = qi.Question()
	}
	if err := h.store.InsertQuestions(r.Context(), questions, name, hash); err != nil {
		slog.Error("failed to import questions", "error", err)
		respondError(w, err)
		return
	}
	h.invalidateQuestions(r.Context())

	slog.Info("imported questions via admin", "filename", name, "count", len(imports))
	writeJSON(w, http.StatusCreated, importResult{Imported: len(imports)})
}

func readImport(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	if isForm(r) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			return "", nil, fmt.Errorf("%w: file too large or not a multipart form", model.ErrValidation)
		}
		file, header, err := r.FormFile("questions_file")
		if err != nil {
			return "", nil, fmt.Errorf("%w: no file uploaded", model.ErrValidation)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", nil, fmt.Errorf("read upload: %w", err)
		}
		return header.Filename, data, nil
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return "", nil, fmt.Errorf("%w: request body too large", model.ErrValidation)
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "api-upload.json"
	}
	return name, data, nil
}
