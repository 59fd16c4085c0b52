package interview

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	model "github.com/anamnezgpt/backend/internal/model/interview"
	"github.com/anamnezgpt/backend/internal/service/speech"
)

type stubTranscriber struct {
	text string
	err  error
}

func (s *stubTranscriber) Enabled() bool { return true }

func (s *stubTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	return s.text, s.err
}

type wsEvent struct {
	Type      string         `json:"type"`
	SessionID string         `json:"sessionId"`
	Data      map[string]any `json:"data"`
}

// dialWS starts a realtime session for the seeded user and connects to it.
func dialWS(t *testing.T, env *testEnv, transcriber Transcriber) (*websocket.Conn, string, func()) {
	t.Helper()

	userID, err := env.authSvc.VerifyToken(env.token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	session, err := env.interviewSvc.Start(context.Background(), userID, "samimi")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	r := chi.NewRouter()
	r.Group(func(protected chi.Router) {
		protected.Use(env.authSvc.RequireUser)
		NewWebSocketHandler(env.interviewSvc, transcriber).RegisterWebSocketRoutes(protected)
	})
	server := httptest.NewServer(r)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/interview/ws/" + session.ID + "?token=" + env.token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		server.Close()
		t.Fatalf("dial websocket: %v", err)
	}

	cleanup := func() {
		conn.Close()
		server.Close()
	}

	event := readEvent(t, conn)
	if event.Type != "connected" {
		cleanup()
		t.Fatalf("expected connected event, got %s", event.Type)
	}

	return conn, session.ID, cleanup
}

func readEvent(t *testing.T, conn *websocket.Conn) wsEvent {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var event wsEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return event
}

func sendEvent(t *testing.T, conn *websocket.Conn, eventType string, data map[string]any) {
	t.Helper()

	if err := conn.WriteJSON(map[string]any{
		"type":      eventType,
		"data":      data,
		"timestamp": time.Now().Unix(),
	}); err != nil {
		t.Fatalf("write event: %v", err)
	}
}

func TestWebSocketTextTurn(t *testing.T) {
	env := setup(t)
	conn, _, cleanup := dialWS(t, env, &stubTranscriber{})
	defer cleanup()

	sendEvent(t, conn, "user_message", map[string]any{"text": "Kendimi yorgun hissediyorum."})

	event := readEvent(t, conn)
	if event.Type != "ai_response" {
		t.Fatalf("expected ai_response, got %s", event.Type)
	}
	if event.Data["message"] == "" || event.Data["message"] == nil {
		t.Fatalf("expected a follow-up question, got %v", event.Data)
	}
	if event.Data["personaName"] == "" || event.Data["personaName"] == nil {
		t.Fatalf("expected persona name, got %v", event.Data)
	}
}

func TestWebSocketAudioTurn(t *testing.T) {
	env := setup(t)
	conn, _, cleanup := dialWS(t, env, &stubTranscriber{text: "Uykusuzluk çekiyorum."})
	defer cleanup()

	sendEvent(t, conn, "audio_message", map[string]any{"audioData": []byte{1, 2, 3}, "format": "webm"})

	event := readEvent(t, conn)
	if event.Type != "transcription_status" || event.Data["status"] != "processing" {
		t.Fatalf("expected processing status, got %s %v", event.Type, event.Data)
	}

	event = readEvent(t, conn)
	if event.Type != "transcription_result" || event.Data["text"] != "Uykusuzluk çekiyorum." {
		t.Fatalf("expected transcription result, got %s %v", event.Type, event.Data)
	}

	event = readEvent(t, conn)
	if event.Type != "ai_response" {
		t.Fatalf("expected ai_response, got %s", event.Type)
	}
}

func TestWebSocketEmptyAudioAppendsNoTurn(t *testing.T) {
	env := setup(t)
	conn, sessionID, cleanup := dialWS(t, env, &stubTranscriber{err: speech.ErrEmptyTranscription})
	defer cleanup()

	sendEvent(t, conn, "audio_message", map[string]any{"audioData": []byte{1, 2, 3}, "format": "webm"})

	event := readEvent(t, conn)
	if event.Type != "transcription_status" || event.Data["status"] != "processing" {
		t.Fatalf("expected processing status, got %s %v", event.Type, event.Data)
	}

	event = readEvent(t, conn)
	if event.Type != "transcription_status" || event.Data["status"] != "empty" {
		t.Fatalf("expected empty status, got %s %v", event.Type, event.Data)
	}

	session, err := env.interviewSvc.Session(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if got := model.AnsweredCount(session.Turns); got != 0 {
		t.Fatalf("expected no answer recorded, got %d", got)
	}
}

func TestWebSocketReadySignalledOnce(t *testing.T) {
	env := setup(t)
	env.gateway.ready = true
	conn, _, cleanup := dialWS(t, env, &stubTranscriber{})
	defer cleanup()

	for i := 0; i < 4; i++ {
		sendEvent(t, conn, "user_message", map[string]any{"text": "cevap"})
		event := readEvent(t, conn)
		if event.Type != "ai_response" {
			t.Fatalf("turn %d: expected ai_response, got %s", i+1, event.Type)
		}
	}

	// The fifth answer crosses the readiness threshold.
	sendEvent(t, conn, "user_message", map[string]any{"text": "cevap"})
	event := readEvent(t, conn)
	if event.Type != "ai_response" {
		t.Fatalf("expected ai_response, got %s", event.Type)
	}
	event = readEvent(t, conn)
	if event.Type != "ready_for_diagnosis" {
		t.Fatalf("expected ready_for_diagnosis, got %s", event.Type)
	}
	if event.Data["ready"] != true {
		t.Fatalf("expected ready=true, got %v", event.Data)
	}

	// The signal never repeats; the next turn produces only the question.
	sendEvent(t, conn, "user_message", map[string]any{"text": "cevap"})
	event = readEvent(t, conn)
	if event.Type != "ai_response" {
		t.Fatalf("expected ai_response, got %s", event.Type)
	}
	sendEvent(t, conn, "user_message", map[string]any{"text": "cevap"})
	event = readEvent(t, conn)
	if event.Type != "ai_response" {
		t.Fatalf("expected only ai_response after the signal, got %s", event.Type)
	}
}

func TestWebSocketPingsDoNotCorruptResponses(t *testing.T) {
	env := setup(t)

	userID, err := env.authSvc.VerifyToken(env.token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	session, err := env.interviewSvc.Start(context.Background(), userID, "samimi")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	handler := NewWebSocketHandler(env.interviewSvc, &stubTranscriber{})
	handler.pingInterval = time.Millisecond

	r := chi.NewRouter()
	r.Group(func(protected chi.Router) {
		protected.Use(env.authSvc.RequireUser)
		handler.RegisterWebSocketRoutes(protected)
	})
	server := httptest.NewServer(r)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/interview/ws/" + session.ID + "?token=" + env.token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	if event := readEvent(t, conn); event.Type != "connected" {
		t.Fatalf("expected connected event, got %s", event.Type)
	}

	// Every frame must still decode while pings fire between responses.
	for i := 0; i < 25; i++ {
		sendEvent(t, conn, "user_message", map[string]any{"text": "cevap"})
		event := readEvent(t, conn)
		if event.Type != "ai_response" {
			t.Fatalf("turn %d: expected ai_response, got %s", i+1, event.Type)
		}
	}
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	env := setup(t)

	userID, err := env.authSvc.VerifyToken(env.token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	session, err := env.interviewSvc.Start(context.Background(), userID, "samimi")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	r := chi.NewRouter()
	r.Group(func(protected chi.Router) {
		protected.Use(env.authSvc.RequireUser)
		NewWebSocketHandler(env.interviewSvc, &stubTranscriber{}).RegisterWebSocketRoutes(protected)
	})
	server := httptest.NewServer(r)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/interview/ws/" + session.ID
	if _, _, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Fatalf("expected handshake to fail without a token")
	}
}
