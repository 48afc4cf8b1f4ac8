package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eduglobe/internal/conversation"
	"eduglobe/internal/language"
	"eduglobe/pkg/config"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

var ErrEmptyResponse = errors.New("нет ответа от модели")

const (
	titleFallbackRunes	= 30
	titleFallbackSuffix	= "..."
)

// Generator produces tutoring replies and chat titles.
type Generator interface {
	GenerateReply(ctx context.Context, turns []conversation.Turn, systemPrompt string) (string, error)
	GenerateTitle(ctx context.Context, firstMessage string, displayLanguage language.Language) string
}

type Service struct {
	client		*openai.Client
	chatModel	string
	titleModel	string
	temperature	float32
}

func NewService(cfg *config.Config) *Service {
	clientConfig := openai.DefaultConfig(cfg.GeminiAPIKey)
	if cfg.GeminiBaseURL != "" {
		clientConfig.BaseURL = cfg.GeminiBaseURL
	}

	return &Service{
		client:		openai.NewClientWithConfig(clientConfig),
		chatModel:	cfg.ChatModel,
		titleModel:	cfg.TitleModel,
		temperature:	cfg.Temperature,
	}
}

func (s *Service) GenerateReply(ctx context.Context, turns []conversation.Turn, systemPrompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:		openai.ChatMessageRoleSystem,
		Content:	systemPrompt,
	})

	for _, t := range turns {
		role := openai.ChatMessageRoleUser
		if t.Role == conversation.RoleAI {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:		role,
			Content:	t.Text,
		})
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:		s.chatModel,
		Messages:	messages,
		Temperature:	s.temperature,
	})
	if err != nil {
		logrus.Errorf("Ошибка при запросе к Gemini с историей: %v", err)
		return "", err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}

func (s *Service) GenerateTitle(ctx context.Context, firstMessage string, displayLanguage language.Language) string {
	prompt := fmt.Sprintf("Summarize this user query into a short, 3-5 word chat title. Reply in %q: %q", string(displayLanguage), firstMessage)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:	s.titleModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		logrus.Errorf("Ошибка генерации названия чата: %v", err)
		return FallbackTitle(firstMessage)
	}
	if len(resp.Choices) == 0 {
		logrus.Warn("Пустой ответ при генерации названия чата")
		return FallbackTitle(firstMessage)
	}

	title := cleanTitle(resp.Choices[0].Message.Content)
	if title == "" {
		return FallbackTitle(firstMessage)
	}
	return title
}

var titleStripper = strings.NewReplacer(`"`, "", "'", "", ".", "")

func cleanTitle(s string) string {
	return strings.TrimSpace(titleStripper.Replace(s))
}

// FallbackTitle is the first 30 runes of message followed by "...".
func FallbackTitle(message string) string {
	r := []rune(message)
	if len(r) > titleFallbackRunes {
		r = r[:titleFallbackRunes]
	}
	return string(r) + titleFallbackSuffix
}
