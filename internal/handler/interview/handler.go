package interview

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/anamnezgpt/backend/internal/auth"
	model "github.com/anamnezgpt/backend/internal/model/interview"
	"github.com/anamnezgpt/backend/internal/model/persona"
	interviewservice "github.com/anamnezgpt/backend/internal/service/interview"
	"github.com/anamnezgpt/backend/pkg/utils"
)

// Handler serves the synchronous interview flow over JSON.
type Handler struct {
	interviewSvc *interviewservice.Service
	personas     persona.Store
}

// New creates the interview handler.
func New(interviewSvc *interviewservice.Service, personas persona.Store) *Handler {
	return &Handler{
		interviewSvc: interviewSvc,
		personas:     personas,
	}
}

// RegisterRoutes registers the synchronous interview routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/interview/session", h.handleStartSession)
	r.Get("/interview/session/{sessionID}", h.handleGetSession)
	r.Post("/interview/session/{sessionID}/answer", h.handleSubmitAnswer)
	r.Get("/interview/session/{sessionID}/result", h.handleResult)
	r.Delete("/interview/session/{sessionID}", h.handleClose)
}

func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var payload struct {
		StyleKey string `json:"styleKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// A fresh interview replaces any lingering sessions for this user.
	h.interviewSvc.CloseAllForUser(r.Context(), userID)

	session, err := h.interviewSvc.Start(r.Context(), userID, payload.StyleKey)
	if err != nil {
		if errors.Is(err, interviewservice.ErrStyleRequired) || errors.Is(err, interviewservice.ErrUnknownStyle) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	p, _ := h.personas.FindByStyle(session.StyleKey)
	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"sessionId":   session.ID,
		"styleKey":    session.StyleKey,
		"personaName": p.Name,
		"message":     session.Turns[0].Text,
		"phase":       session.Phase,
	})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Text == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	result, err := h.interviewSvc.SubmitAnswer(r.Context(), session.ID, payload.Text)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	response := map[string]any{
		"phase":         result.Phase,
		"answeredCount": result.AnsweredCount,
		"personaName":   result.PersonaName,
	}
	if result.Phase == model.PhaseReadyForClose {
		// The client follows up with the result request; no further question
		// is issued.
		response["redirect"] = "result"
	} else {
		response["message"] = result.Reply
	}
	utils.RespondJSON(w, http.StatusOK, response)
}

func (h *Handler) handleResult(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	view, err := h.interviewSvc.Result(r.Context(), session.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, view)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	h.interviewSvc.Close(r.Context(), session.ID)
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// ownedSession resolves the session and enforces that it belongs to the
// authenticated user.
func (h *Handler) ownedSession(w http.ResponseWriter, r *http.Request) (model.Session, bool) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "missing user identity")
		return model.Session{}, false
	}

	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.interviewSvc.Session(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return model.Session{}, false
	}
	if session.UserID != userID {
		utils.RespondError(w, http.StatusForbidden, "session belongs to another user")
		return model.Session{}, false
	}
	return session, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interviewservice.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, interviewservice.ErrSessionClosed):
		utils.RespondError(w, http.StatusConflict, "session is closed")
	default:
		utils.RespondError(w, http.StatusInternalServerError, "interview operation failed")
	}
}
