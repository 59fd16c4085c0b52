package interview

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/anamnezgpt/backend/internal/auth"
	interviewservice "github.com/anamnezgpt/backend/internal/service/interview"
	"github.com/anamnezgpt/backend/internal/service/speech"
)

// Transcriber is the speech boundary the realtime flow depends on.
type Transcriber interface {
	Enabled() bool
	Transcribe(ctx context.Context, audio []byte, format string) (string, error)
}

// WebSocketHandler drives the realtime interview flow: typed or spoken
// answers in, persona questions and readiness signals out.
type WebSocketHandler struct {
	interviewSvc *interviewservice.Service
	speechSvc    Transcriber
	pingInterval time.Duration
	upgrader     websocket.Upgrader
}

// NewWebSocketHandler creates the realtime handler.
func NewWebSocketHandler(interviewSvc *interviewservice.Service, speechSvc Transcriber) *WebSocketHandler {
	return &WebSocketHandler{
		interviewSvc: interviewSvc,
		speechSvc:    speechSvc,
		pingInterval: 54 * time.Second,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes registers the realtime route.
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/interview/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// AudioMessage carries one recorded answer; AudioData is base64 on the wire.
type AudioMessage struct {
	AudioData []byte `json:"audioData"`
	Format    string `json:"format"`
}

// TextMessage carries one typed answer.
type TextMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	userID, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "missing user identity", http.StatusUnauthorized)
		return
	}

	session, err := h.interviewSvc.Session(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if session.UserID != userID {
		http.Error(w, "session belongs to another user", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go h.pingLoop(ctx, conn)

	h.send(conn, sessionID, "connected", map[string]any{
		"styleKey": session.StyleKey,
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[websocket] read error: %v", err)
				}
				return
			}

			conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			if msg.SessionID != "" && msg.SessionID != sessionID {
				h.sendError(conn, "session mismatch")
				continue
			}

			h.handleMessage(ctx, conn, sessionID, &msg)
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, conn *websocket.Conn, sessionID string, msg *inboundMessage) {
	switch msg.Type {
	case "audio_message":
		h.handleAudioMessage(ctx, conn, sessionID, msg.Data)
	case "user_message":
		h.handleTextMessage(ctx, conn, sessionID, msg.Data)
	default:
		h.sendError(conn, "unsupported message type: "+msg.Type)
	}
}

// handleAudioMessage transcribes the recording and feeds the text through the
// same path as a typed answer. Empty speech prompts a retry instead of
// appending a fabricated turn.
func (h *WebSocketHandler) handleAudioMessage(ctx context.Context, conn *websocket.Conn, sessionID string, raw json.RawMessage) {
	if h.speechSvc == nil || !h.speechSvc.Enabled() {
		h.send(conn, sessionID, "transcription_status", map[string]any{
			"status":  "error",
			"message": "speech service unavailable",
		})
		return
	}

	var audio AudioMessage
	if err := json.Unmarshal(raw, &audio); err != nil {
		h.sendError(conn, "invalid audio payload")
		return
	}

	h.send(conn, sessionID, "transcription_status", map[string]any{"status": "processing"})

	text, err := h.speechSvc.Transcribe(ctx, audio.AudioData, audio.Format)
	if err != nil {
		if errors.Is(err, speech.ErrEmptyTranscription) {
			h.send(conn, sessionID, "transcription_status", map[string]any{"status": "empty"})
			return
		}
		log.Printf("[websocket] transcription failed session=%s: %v", sessionID, err)
		h.send(conn, sessionID, "transcription_status", map[string]any{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	h.send(conn, sessionID, "transcription_result", map[string]any{"text": text})

	h.processUserText(ctx, conn, sessionID, text)
}

func (h *WebSocketHandler) handleTextMessage(ctx context.Context, conn *websocket.Conn, sessionID string, raw json.RawMessage) {
	var text TextMessage
	if err := json.Unmarshal(raw, &text); err != nil {
		h.sendError(conn, "invalid text payload")
		return
	}
	if text.Text == "" {
		return
	}

	h.processUserText(ctx, conn, sessionID, text.Text)
}

func (h *WebSocketHandler) processUserText(ctx context.Context, conn *websocket.Conn, sessionID, userText string) {
	result, err := h.interviewSvc.HandleUserTurn(ctx, sessionID, userText)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}

	h.send(conn, sessionID, "ai_response", map[string]any{
		"message":     result.Reply,
		"personaName": result.PersonaName,
	})

	if result.ReadyJustSent {
		h.send(conn, sessionID, "ready_for_diagnosis", map[string]any{"ready": true})
	}
}

func (h *WebSocketHandler) send(conn *websocket.Conn, sessionID, eventType string, data map[string]any) {
	msg := outgoingMessage{
		Type:      eventType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write failed: %v", err)
	}
}

func (h *WebSocketHandler) sendError(conn *websocket.Conn, message string) {
	msg := outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write error failed: %v", err)
	}
}

// pingLoop runs beside the read loop, which also writes responses.
// WriteControl is the only write that is safe from a second goroutine.
func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}
