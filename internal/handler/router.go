package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	authservice "github.com/anamnezgpt/backend/internal/auth"
	authhandler "github.com/anamnezgpt/backend/internal/handler/auth"
	interviewhandler "github.com/anamnezgpt/backend/internal/handler/interview"
	personahandler "github.com/anamnezgpt/backend/internal/handler/persona"
	middlewarePkg "github.com/anamnezgpt/backend/internal/middleware"
	personaModel "github.com/anamnezgpt/backend/internal/model/persona"
	interviewService "github.com/anamnezgpt/backend/internal/service/interview"
	speechService "github.com/anamnezgpt/backend/internal/service/speech"
	"github.com/anamnezgpt/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, authSvc *authservice.Service, interviewSvc *interviewService.Service, speechSvc *speechService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	personaHandler := personahandler.New(personas)
	authHandler := authhandler.New(authSvc)
	interviewHandler := interviewhandler.New(interviewSvc, personas)

	// Assign through the interface only when the service exists, so the
	// handler's nil check works.
	var transcriber interviewhandler.Transcriber
	if speechSvc != nil {
		transcriber = speechSvc
	}
	wsHandler := interviewhandler.NewWebSocketHandler(interviewSvc, transcriber)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		personaHandler.RegisterRoutes(api)
		authHandler.RegisterRoutes(api)

		api.Group(func(protected chi.Router) {
			protected.Use(authSvc.RequireUser)
			interviewHandler.RegisterRoutes(protected)
			wsHandler.RegisterWebSocketRoutes(protected)
		})
	})

	return r
}
