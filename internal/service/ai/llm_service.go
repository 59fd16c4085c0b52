package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/anamnezgpt/backend/internal/config"
	"github.com/anamnezgpt/backend/internal/model/interview"
	"github.com/anamnezgpt/backend/internal/model/persona"
)

// Service wraps the chat-completion provider behind the three interview call
// sites (greeting, next turn, summary) plus the readiness probe. Every method
// recovers from upstream failure with a fixed, call-site-appropriate fallback
// so a broken gateway degrades the conversation instead of stalling it.
type Service struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService builds the service on top of the configured provider.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return newService(ctx, chatModel)
}

// newService compiles the prompt template -> chat model chain.
func newService(ctx context.Context, chatModel model.ChatModel) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		chain:     runnable,
	}, nil
}

// Greeting asks the model for the opening message of a session. The greeting
// introduces the persona and already carries the first open question.
func (s *Service) Greeting(ctx context.Context, p persona.Persona) string {
	reply, err := s.invoke(ctx, p.SystemPrompt+greetingInstruction, []*schema.Message{
		schema.UserMessage(greetingUserMessage),
	})
	if err != nil {
		log.Printf("[ai] greeting call failed for style=%s: %v", p.StyleKey, err)
		return fallbackGreeting(p)
	}
	return reply
}

// NextTurn asks the model for the persona's next comment-and-question, handing
// over the whole turn history. No windowing is applied: the full conversation
// is sent on every call.
func (s *Service) NextTurn(ctx context.Context, p persona.Persona, turns []interview.Turn, extended bool) string {
	reply, err := s.invoke(ctx, buildTurnSystemPrompt(p, extended), historyMessages(turns))
	if err != nil {
		log.Printf("[ai] turn call failed for style=%s extended=%t: %v", p.StyleKey, extended, err)
		return fallbackTurn
	}
	return reply
}

// Summary produces the closing clinical-style observation from the ordered
// question/answer pairs of a finished interview.
func (s *Service) Summary(ctx context.Context, pairs []interview.QAPair) string {
	reply, err := s.invoke(ctx, summarySystemPrompt, []*schema.Message{
		schema.UserMessage(buildSummaryContent(pairs)),
	})
	if err != nil {
		log.Printf("[ai] summary call failed: %v", err)
		return fallbackSummary
	}
	return reply
}

func (s *Service) invoke(ctx context.Context, system string, history []*schema.Message) (string, error) {
	response, err := s.chain.Invoke(ctx, map[string]any{
		"system":  system,
		"history": history,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run chat chain: %w", err)
	}

	reply := strings.TrimSpace(response.Content)
	if reply == "" {
		return "", fmt.Errorf("chat chain returned an empty reply")
	}
	return reply, nil
}

// historyMessages maps interview turns onto chat roles: persona turns become
// assistant messages, user turns become user messages.
func historyMessages(turns []interview.Turn) []*schema.Message {
	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Speaker {
		case interview.SpeakerPersona:
			history = append(history, schema.AssistantMessage(turn.Text, nil))
		case interview.SpeakerUser:
			history = append(history, schema.UserMessage(turn.Text))
		}
	}
	return history
}
