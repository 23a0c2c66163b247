// Package rest exposes the analysis pipeline over HTTP.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/urlassay/urlassay/internal/application/dto"
	"github.com/urlassay/urlassay/internal/application/usecase"
	"github.com/urlassay/urlassay/internal/domain/valueobject"
)

const maxRequestBody = 16 << 10

// Handler serves the analysis endpoints.
type Handler struct {
	analyze *usecase.AnalyzeURL
	logger  *slog.Logger
}

// NewHandler creates the REST handler.
func NewHandler(analyze *usecase.AnalyzeURL, logger *slog.Logger) *Handler {
	return &Handler{analyze: analyze, logger: logger}
}

// Routes returns the router for the analysis API.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/v1/analyze", h.AnalyzeURL)
	return r
}

// ErrorResponse is the JSON error body. Kind is present for validation
// failures so clients can act on the specific rule that rejected the URL.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// AnalyzeURL handles POST /v1/analyze.
func (h *Handler) AnalyzeURL(w http.ResponseWriter, r *http.Request) {
	var req dto.AnalyzeURLRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "url is required",
			Kind:  string(valueobject.ErrorKindInvalidFormat),
		})
		return
	}

	resp, err := h.analyze.Execute(r.Context(), req)
	if err != nil {
		var verr *valueobject.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error: verr.Message,
				Kind:  string(verr.Kind),
			})
			return
		}

		h.logger.Error("analysis request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
