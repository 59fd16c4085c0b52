package interview

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anamnezgpt/backend/internal/model/interview"
	"github.com/anamnezgpt/backend/internal/model/persona"
	"github.com/anamnezgpt/backend/internal/storage"
)

var (
	ErrStyleRequired   = errors.New("style key is required")
	ErrUnknownStyle    = errors.New("unknown interviewer style")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session is closed")
)

// Gateway is the language-model boundary the state machine drives. Every
// method blocks until the upstream call finishes and never fails: the
// implementation substitutes call-site fallbacks on upstream errors.
type Gateway interface {
	Greeting(ctx context.Context, p persona.Persona) string
	NextTurn(ctx context.Context, p persona.Persona, turns []interview.Turn, extended bool) string
	Summary(ctx context.Context, pairs []interview.QAPair) string
	CheckReady(ctx context.Context, turns []interview.Turn) bool
}

// TurnResult reports the outcome of one processed user turn.
type TurnResult struct {
	Reply         string          `json:"reply,omitempty"`
	PersonaName   string          `json:"personaName"`
	AnsweredCount int             `json:"answeredCount"`
	Phase         interview.Phase `json:"phase"`
	ReadyJustSent bool            `json:"-"`
}

// ResultView is the closing payload of an interview.
type ResultView struct {
	Pairs   []interview.QAPair `json:"pairs"`
	Summary string             `json:"summary"`
}

// Service owns the live interview sessions and the turn-taking rules. Each
// session is driven by the single connection that created it; the map itself
// is guarded for concurrent access across connections.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*interview.Session

	gateway  Gateway
	personas persona.Store
	store    storage.Store
}

// NewService bootstraps the in-memory session registry.
func NewService(gateway Gateway, personas persona.Store, store storage.Store) *Service {
	return &Service{
		sessions: make(map[string]*interview.Session),
		gateway:  gateway,
		personas: personas,
		store:    store,
	}
}

// Start provisions a session for the selected style and obtains the opening
// greeting. The greeting is the first persona turn and already counts as an
// open question.
func (s *Service) Start(ctx context.Context, userID, styleKey string) (interview.Session, error) {
	if styleKey == "" {
		return interview.Session{}, ErrStyleRequired
	}
	p, ok := s.personas.FindByStyle(styleKey)
	if !ok {
		return interview.Session{}, ErrUnknownStyle
	}

	greeting := s.gateway.Greeting(ctx, p)

	session := &interview.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		StyleKey:  styleKey,
		Phase:     interview.PhaseAsking,
		CreatedAt: time.Now().UTC(),
		Turns: []interview.Turn{
			{Text: greeting, Speaker: interview.SpeakerPersona, IsQuestion: true},
		},
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return snapshot(session), nil
}

// Session returns a copy of the identified session.
func (s *Service) Session(_ context.Context, sessionID string) (interview.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return interview.Session{}, ErrSessionNotFound
	}
	return snapshot(session), nil
}

// SubmitAnswer processes one answer of the synchronous flow. On the fifth
// answer the session moves straight to ready_for_close and no further
// question is requested.
func (s *Service) SubmitAnswer(ctx context.Context, sessionID, text string) (TurnResult, error) {
	p, turns, count, extended, err := s.acceptUserTurn(ctx, sessionID, text)
	if err != nil {
		return TurnResult{}, err
	}

	if count >= interview.CloseThreshold {
		s.mu.Lock()
		if session, ok := s.sessions[sessionID]; ok {
			session.Phase = interview.PhaseReadyForClose
		}
		s.mu.Unlock()
		return TurnResult{
			PersonaName:   p.Name,
			AnsweredCount: count,
			Phase:         interview.PhaseReadyForClose,
		}, nil
	}

	reply := s.gateway.NextTurn(ctx, p, turns, extended)
	s.appendPersonaTurn(sessionID, reply)

	return TurnResult{
		Reply:         reply,
		PersonaName:   p.Name,
		AnsweredCount: count,
		Phase:         interview.PhaseAsking,
	}, nil
}

// HandleUserTurn processes one answer of the realtime flow. Unlike the
// synchronous flow it always produces the next question; readiness is
// signalled once via ReadyJustSent when the threshold logic fires.
func (s *Service) HandleUserTurn(ctx context.Context, sessionID, text string) (TurnResult, error) {
	p, turns, count, extended, err := s.acceptUserTurn(ctx, sessionID, text)
	if err != nil {
		return TurnResult{}, err
	}

	reply := s.gateway.NextTurn(ctx, p, turns, extended)
	replyTurns := s.appendPersonaTurn(sessionID, reply)

	result := TurnResult{
		Reply:         reply,
		PersonaName:   p.Name,
		AnsweredCount: count,
		Phase:         interview.PhaseAsking,
	}

	if count >= interview.ReadyCheckThreshold && !s.readySent(sessionID) {
		ready := extended
		if !ready {
			ready = s.gateway.CheckReady(ctx, replyTurns)
		}
		if ready && s.latchReady(sessionID) {
			result.ReadyJustSent = true
		}
	}

	return result, nil
}

// Result derives the question/answer pairs, requests the closing summary and
// records it. Pairing is a pure function of the history, so repeated calls
// without new turns return identical pairs.
func (s *Service) Result(ctx context.Context, sessionID string) (ResultView, error) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return ResultView{}, ErrSessionNotFound
	}
	userID := session.UserID
	turns := append([]interview.Turn(nil), session.Turns...)
	session.Phase = interview.PhaseClosed
	s.mu.Unlock()

	pairs := interview.PairAnswers(turns)
	summary := s.gateway.Summary(ctx, pairs)

	if err := s.store.SaveSummary(ctx, storage.SummaryRecord{
		UserID:      userID,
		SummaryText: summary,
	}); err != nil {
		log.Printf("[interview] failed to persist summary for session=%s: %v", sessionID, err)
	}

	return ResultView{Pairs: pairs, Summary: summary}, nil
}

// Close discards the session history and style selection.
func (s *Service) Close(_ context.Context, sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// CloseAllForUser drops every session the user owns, the logout path.
func (s *Service) CloseAllForUser(_ context.Context, userID string) {
	s.mu.Lock()
	for id, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()
}

// acceptUserTurn appends the user turn, records the answer against the last
// open question and reports the updated answer count and extended-mode state.
// Persistence failures are logged and swallowed: they must never block the
// conversation.
func (s *Service) acceptUserTurn(ctx context.Context, sessionID, text string) (persona.Persona, []interview.Turn, int, bool, error) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return persona.Persona{}, nil, 0, false, ErrSessionNotFound
	}
	if session.Phase == interview.PhaseClosed {
		s.mu.Unlock()
		return persona.Persona{}, nil, 0, false, ErrSessionClosed
	}

	openQuestion := interview.LastOpenQuestion(session.Turns)
	session.Turns = append(session.Turns, interview.Turn{Text: text, Speaker: interview.SpeakerUser})
	turns := append([]interview.Turn(nil), session.Turns...)
	count := interview.AnsweredCount(session.Turns)
	extended := session.ExtendedMode()
	userID := session.UserID
	styleKey := session.StyleKey
	s.mu.Unlock()

	p, ok := s.personas.FindByStyle(styleKey)
	if !ok {
		// The catalog is static, so this only happens if a session outlives a
		// catalog change. Treat it as a missing session.
		return persona.Persona{}, nil, 0, false, ErrSessionNotFound
	}

	if err := s.store.SaveAnswer(ctx, storage.AnswerRecord{
		UserID:       userID,
		QuestionText: openQuestion,
		AnswerText:   text,
	}); err != nil {
		log.Printf("[interview] failed to persist answer for session=%s: %v", sessionID, err)
	}

	log.Printf("[interview] session=%s answered=%d", sessionID, count)
	return p, turns, count, extended, nil
}

// appendPersonaTurn records the model's reply as the next open question and
// returns a snapshot of the updated history.
func (s *Service) appendPersonaTurn(sessionID, reply string) []interview.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	session.Turns = append(session.Turns, interview.Turn{
		Text:       reply,
		Speaker:    interview.SpeakerPersona,
		IsQuestion: true,
	})
	return append([]interview.Turn(nil), session.Turns...)
}

func (s *Service) readySent(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	return ok && session.ReadySent
}

// latchReady sets ReadySent and reports whether this call flipped it. The
// flag never resets within a session's lifetime.
func (s *Service) latchReady(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok || session.ReadySent {
		return false
	}
	session.ReadySent = true
	return true
}

func snapshot(session *interview.Session) interview.Session {
	copied := *session
	copied.Turns = append([]interview.Turn(nil), session.Turns...)
	return copied
}
