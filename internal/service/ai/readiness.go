package ai

import (
	"context"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/anamnezgpt/backend/internal/model/interview"
)

const (
	readinessSystemPrompt = "You are a clinical assessment expert. " +
		"Analyze the conversation and determine if there's enough " +
		"psychological data for a preliminary observation. " +
		"Answer ONLY with 'READY' or 'NOT_READY'. Nothing else."

	readinessQuestion = "Based on this conversation history, do you have enough data " +
		"to provide a preliminary psychological observation?\n\n"

	// The probe only needs a single token back.
	readinessMaxTokens = 10
)

// CheckReady issues the dedicated yes/no readiness query. Any failure counts
// as not ready; the interview simply continues.
func (s *Service) CheckReady(ctx context.Context, turns []interview.Turn) bool {
	response, err := s.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(readinessSystemPrompt),
		schema.UserMessage(readinessQuestion + renderTranscript(turns)),
	}, model.WithMaxTokens(readinessMaxTokens))
	if err != nil {
		log.Printf("[ai] readiness check failed: %v", err)
		return false
	}

	answer := strings.TrimSpace(response.Content)
	log.Printf("[ai] readiness check answered: %s", answer)
	return parseReadiness(answer)
}

// parseReadiness interprets the model's yes/no verdict. NOT_READY contains
// READY as a substring, so it has to be ruled out first.
func parseReadiness(answer string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(answer))
	if strings.Contains(normalized, "NOT_READY") {
		return false
	}
	return strings.Contains(normalized, "READY")
}

func renderTranscript(turns []interview.Turn) string {
	var builder strings.Builder
	for _, turn := range turns {
		if turn.Speaker == interview.SpeakerPersona {
			builder.WriteString("Psikolog: ")
		} else {
			builder.WriteString("Danışan: ")
		}
		builder.WriteString(turn.Text)
		builder.WriteString("\n")
	}
	return builder.String()
}
