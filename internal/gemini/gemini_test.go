package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"eduglobe/internal/conversation"
	"eduglobe/internal/language"
	"eduglobe/pkg/config"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompletions struct {
	mu		sync.Mutex
	requests	[]openai.ChatCompletionRequest
	status		int
	content		string
	noChoices	bool
}

func (f *fakeCompletions) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req openai.ChatCompletionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
		return
	}

	choices := []map[string]any{
		{"index": 0, "message": map[string]string{"role": "assistant", "content": f.content}},
	}
	if f.noChoices {
		choices = nil
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"id": "1", "object": "chat.completion", "choices": choices})
}

func (f *fakeCompletions) last() openai.ChatCompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestService(t *testing.T, fake *fakeCompletions) *Service {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	return NewService(&config.Config{
		GeminiAPIKey:	"test-key",
		GeminiBaseURL:	srv.URL,
		ChatModel:	"chat-model",
		TitleModel:	"title-model",
		Temperature:	0.7,
	})
}

func TestGenerateReplyMapsRoles(t *testing.T) {
	fake := &fakeCompletions{content: "The answer is 4."}
	svc := newTestService(t, fake)

	turns := []conversation.Turn{
		{Role: conversation.RoleUser, Text: "hi"},
		{Role: conversation.RoleAI, Text: "hello"},
		{Role: conversation.RoleUser, Text: "2+2?"},
	}
	reply, err := svc.GenerateReply(context.Background(), turns, "be a tutor")
	require.NoError(t, err)
	assert.Equal(t, "The answer is 4.", reply)

	req := fake.last()
	assert.Equal(t, "chat-model", req.Model)
	assert.InDelta(t, 0.7, req.Temperature, 0.001)
	require.Len(t, req.Messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, "be a tutor", req.Messages[0].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, req.Messages[2].Role)
	assert.Equal(t, "2+2?", req.Messages[3].Content)
}

func TestGenerateReplyPropagatesErrors(t *testing.T) {
	svc := newTestService(t, &fakeCompletions{status: http.StatusInternalServerError})
	_, err := svc.GenerateReply(context.Background(), []conversation.Turn{{Role: conversation.RoleUser, Text: "q"}}, "p")
	assert.Error(t, err)

	svc = newTestService(t, &fakeCompletions{noChoices: true})
	_, err = svc.GenerateReply(context.Background(), []conversation.Turn{{Role: conversation.RoleUser, Text: "q"}}, "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerateTitleStripsPunctuation(t *testing.T) {
	fake := &fakeCompletions{content: ` "Adding Two Numbers." `}
	svc := newTestService(t, fake)

	title := svc.GenerateTitle(context.Background(), "what is 2+2", language.Hawaiian)
	assert.Equal(t, "Adding Two Numbers", title)

	req := fake.last()
	assert.Equal(t, "title-model", req.Model)
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, string(language.Hawaiian))
	assert.Contains(t, req.Messages[0].Content, "what is 2+2")
}

func TestGenerateTitleFallsBack(t *testing.T) {
	msg := "Please explain how long division works with remainders"

	svc := newTestService(t, &fakeCompletions{status: http.StatusBadGateway})
	assert.Equal(t, FallbackTitle(msg), svc.GenerateTitle(context.Background(), msg, language.English))

	svc = newTestService(t, &fakeCompletions{content: `"..."`})
	assert.Equal(t, FallbackTitle(msg), svc.GenerateTitle(context.Background(), msg, language.English))

	svc = newTestService(t, &fakeCompletions{noChoices: true})
	assert.Equal(t, FallbackTitle(msg), svc.GenerateTitle(context.Background(), msg, language.English))
}

func TestFallbackTitle(t *testing.T) {
	assert.Equal(t, "short...", FallbackTitle("short"))

	long := strings.Repeat("a", 45)
	assert.Equal(t, strings.Repeat("a", 30)+"...", FallbackTitle(long))
	assert.Equal(t, FallbackTitle(long), FallbackTitle(long))

	telugu := strings.Repeat("గ", 40)
	got := FallbackTitle(telugu)
	assert.Equal(t, strings.Repeat("గ", 30)+"...", got)
}
