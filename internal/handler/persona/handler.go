package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/anamnezgpt/backend/internal/model/persona"
	"github.com/anamnezgpt/backend/pkg/utils"
)

// Handler serves the interviewer style catalog.
type Handler struct {
	personas persona.Store
}

// New creates the persona handler.
func New(personas persona.Store) *Handler {
	return &Handler{personas: personas}
}

// RegisterRoutes registers the persona routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleListPersonas)
}

func (h *Handler) handleListPersonas(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.List())
}
