package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/anamnezgpt/backend/internal/auth"
	"github.com/anamnezgpt/backend/internal/config"
	"github.com/anamnezgpt/backend/internal/handler"
	"github.com/anamnezgpt/backend/internal/model/persona"
	"github.com/anamnezgpt/backend/internal/service/ai"
	"github.com/anamnezgpt/backend/internal/service/interview"
	"github.com/anamnezgpt/backend/internal/service/speech"
	"github.com/anamnezgpt/backend/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store, cleanup, err := newStore(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}
	defer cleanup()

	authSvc := auth.NewService(store, cfg.Auth)
	if err := authSvc.SeedDefaultUser(ctx); err != nil {
		log.Printf("warning: failed to seed default user: %v", err)
	}

	personaStore := persona.NewMemoryStore(persona.Seed())

	// The interview cannot run without a question generator, so missing AI
	// credentials are fatal rather than a degraded mode.
	if !cfg.AI.Enabled() {
		log.Fatal("AI credentials missing: set OPENROUTER_API_KEY and AI_MODEL (or the Ark equivalents with AI_PROVIDER=ark)")
	}
	aiSvc, err := ai.NewService(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize AI service: %v", err)
	}
	log.Println("AI service initialized successfully")

	var speechSvc *speech.Service
	if cfg.Speech.Enabled {
		speechSvc = speech.NewService(cfg.Speech)
		log.Println("Speech service initialized successfully")
	} else {
		log.Println("speech credentials not configured, voice answers disabled")
	}

	interviewSvc := interview.NewService(aiSvc, personaStore, store)

	router := handler.NewRouter(personaStore, authSvc, interviewSvc, speechSvc)

	startServer(ctx, cfg.Server, router)
}

// newStore selects Postgres when DATABASE_URL is set, otherwise the in-memory
// store. The cleanup func closes the pool on shutdown.
func newStore(ctx context.Context, cfg config.DatabaseConfig) (storage.Store, func(), error) {
	if cfg.URL == "" {
		log.Println("DATABASE_URL not set, using in-memory storage")
		return storage.NewMemoryStore(), func() {}, nil
	}

	pg, err := storage.NewPostgresStore(ctx, cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	log.Println("connected to postgres")
	return pg, pg.Close, nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("anamnez backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
