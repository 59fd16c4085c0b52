package interview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	authservice "github.com/anamnezgpt/backend/internal/auth"
	"github.com/anamnezgpt/backend/internal/config"
	model "github.com/anamnezgpt/backend/internal/model/interview"
	"github.com/anamnezgpt/backend/internal/model/persona"
	interviewservice "github.com/anamnezgpt/backend/internal/service/interview"
	"github.com/anamnezgpt/backend/internal/storage"
)

type stubGateway struct {
	ready bool
}

func (g *stubGateway) Greeting(_ context.Context, p persona.Persona) string {
	return "Merhaba, ben " + p.Name + ". Bugün seni buraya getiren nedir?"
}

func (g *stubGateway) NextTurn(_ context.Context, _ persona.Persona, turns []model.Turn, _ bool) string {
	return fmt.Sprintf("Soru %d?", len(turns))
}

func (g *stubGateway) Summary(context.Context, []model.QAPair) string {
	return "Görüşme özeti."
}

func (g *stubGateway) CheckReady(context.Context, []model.Turn) bool {
	return g.ready
}

type testEnv struct {
	router       *chi.Mux
	token        string
	store        *storage.MemoryStore
	authSvc      *authservice.Service
	interviewSvc *interviewservice.Service
	gateway      *stubGateway
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	store := storage.NewMemoryStore()
	authSvc := authservice.NewService(store, config.AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	})
	if err := authSvc.SeedDefaultUser(context.Background()); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token, err := authSvc.Login(context.Background(), "test", "test123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	personas := persona.NewMemoryStore(persona.Seed())
	gateway := &stubGateway{}
	interviewSvc := interviewservice.NewService(gateway, personas, store)
	handler := New(interviewSvc, personas)

	r := chi.NewRouter()
	r.Group(func(protected chi.Router) {
		protected.Use(authSvc.RequireUser)
		handler.RegisterRoutes(protected)
	})

	return &testEnv{router: r, token: token, store: store, authSvc: authSvc, interviewSvc: interviewSvc, gateway: gateway}
}

func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func (env *testEnv) startSession(t *testing.T, styleKey string) string {
	t.Helper()
	resp := env.do(t, http.MethodPost, "/interview/session", env.token, map[string]string{"styleKey": styleKey})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	body := decodeBody(t, resp)
	sessionID, _ := body["sessionId"].(string)
	if sessionID == "" {
		t.Fatalf("expected sessionId in response")
	}
	return sessionID
}

func TestStartSessionRequiresAuth(t *testing.T) {
	env := setup(t)

	resp := env.do(t, http.MethodPost, "/interview/session", "", map[string]string{"styleKey": "samimi"})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestStartSessionUnknownStyle(t *testing.T) {
	env := setup(t)

	resp := env.do(t, http.MethodPost, "/interview/session", env.token, map[string]string{"styleKey": "bilinmeyen"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestStartSessionReturnsGreeting(t *testing.T) {
	env := setup(t)

	resp := env.do(t, http.MethodPost, "/interview/session", env.token, map[string]string{"styleKey": "samimi"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	body := decodeBody(t, resp)
	if body["message"] == "" || body["message"] == nil {
		t.Fatalf("expected opening question, got %v", body["message"])
	}
	if body["personaName"] == "" || body["personaName"] == nil {
		t.Fatalf("expected persona name, got %v", body["personaName"])
	}
}

func TestAnswerFlowClosesOnFifth(t *testing.T) {
	env := setup(t)
	sessionID := env.startSession(t, "samimi")
	answerPath := "/interview/session/" + sessionID + "/answer"

	for i := 1; i <= 4; i++ {
		resp := env.do(t, http.MethodPost, answerPath, env.token, map[string]string{"text": fmt.Sprintf("cevap %d", i)})
		if resp.Code != http.StatusOK {
			t.Fatalf("answer %d: expected 200, got %d", i, resp.Code)
		}
		body := decodeBody(t, resp)
		if body["message"] == "" || body["message"] == nil {
			t.Fatalf("answer %d: expected a follow-up question", i)
		}
	}

	resp := env.do(t, http.MethodPost, answerPath, env.token, map[string]string{"text": "cevap 5"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := decodeBody(t, resp)
	if body["phase"] != string(model.PhaseReadyForClose) {
		t.Fatalf("expected ready_for_close, got %v", body["phase"])
	}
	if body["redirect"] != "result" {
		t.Fatalf("expected redirect to result, got %v", body["redirect"])
	}
	if _, hasMessage := body["message"]; hasMessage {
		t.Fatalf("no further question expected after the fifth answer")
	}

	result := env.do(t, http.MethodGet, "/interview/session/"+sessionID+"/result", env.token, nil)
	if result.Code != http.StatusOK {
		t.Fatalf("result: expected 200, got %d", result.Code)
	}
	resultBody := decodeBody(t, result)
	if resultBody["summary"] != "Görüşme özeti." {
		t.Fatalf("unexpected summary: %v", resultBody["summary"])
	}
	pairs, ok := resultBody["pairs"].([]any)
	if !ok || len(pairs) != 5 {
		t.Fatalf("expected 5 pairs, got %v", resultBody["pairs"])
	}
}

func TestAnswerEmptyTextRejected(t *testing.T) {
	env := setup(t)
	sessionID := env.startSession(t, "samimi")

	resp := env.do(t, http.MethodPost, "/interview/session/"+sessionID+"/answer", env.token, map[string]string{"text": ""})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSessionOwnershipEnforced(t *testing.T) {
	env := setup(t)
	sessionID := env.startSession(t, "samimi")

	hash, err := bcrypt.GenerateFromPassword([]byte("sifre"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := env.store.CreateUser(context.Background(), storage.User{
		Username:     "diger",
		PasswordHash: string(hash),
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	otherToken, err := env.authSvc.Login(context.Background(), "diger", "sifre")
	if err != nil {
		t.Fatalf("login other user: %v", err)
	}

	resp := env.do(t, http.MethodGet, "/interview/session/"+sessionID, otherToken, nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestNewSessionReplacesPrevious(t *testing.T) {
	env := setup(t)
	first := env.startSession(t, "samimi")
	env.startSession(t, "profesyonel")

	resp := env.do(t, http.MethodGet, "/interview/session/"+first, env.token, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected first session to be discarded, got %d", resp.Code)
	}
}

func TestCloseSession(t *testing.T) {
	env := setup(t)
	sessionID := env.startSession(t, "samimi")

	resp := env.do(t, http.MethodDelete, "/interview/session/"+sessionID, env.token, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = env.do(t, http.MethodGet, "/interview/session/"+sessionID, env.token, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after close, got %d", resp.Code)
	}
}
