package translation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"eduglobe/internal/language"
	"eduglobe/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type translateCall struct {
	Q	[]string	`json:"q"`
	Source	string		`json:"source"`
	Target	string		`json:"target"`
	Format	string		`json:"format"`
}

type fakeTranslate struct {
	mu	sync.Mutex
	calls	[]translateCall
	status	int
	reply	func(call translateCall) string
}

func (f *fakeTranslate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data translateCall `json:"data"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	call := body.Data

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if f.status != 0 && f.status != http.StatusOK {
		http.Error(w, `{"error":{"code":500,"message":"boom"}}`, f.status)
		return
	}

	text := ""
	if f.reply != nil && len(call.Q) > 0 {
		text = f.reply(call)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": map[string]any{
			"translations": []map[string]string{{"translatedText": text}},
		},
	})
}

func (f *fakeTranslate) Calls() []translateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]translateCall(nil), f.calls...)
}

func newTestService(t *testing.T, fake *fakeTranslate) *Service {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := NewService(context.Background(), &config.Config{},
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)
	return svc
}

func TestTranslatePivotMakesNoCall(t *testing.T) {
	fake := &fakeTranslate{}
	svc := newTestService(t, fake)

	assert.Equal(t, "What is 2+2?", svc.Translate(context.Background(), "What is 2+2?", language.English))
	assert.Equal(t, "What is 2+2?", svc.ToPivot(context.Background(), "What is 2+2?", language.English))
	assert.Equal(t, "", svc.Translate(context.Background(), "", language.Telugu))
	assert.Empty(t, fake.Calls())
}

func TestTranslateToTarget(t *testing.T) {
	fake := &fakeTranslate{reply: func(c translateCall) string { return "[" + c.Target + "] " + c.Q[0] }}
	svc := newTestService(t, fake)

	got := svc.Translate(context.Background(), "four", language.Hawaiian)
	assert.Equal(t, "[haw] four", got)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "haw", calls[0].Target)
	assert.Equal(t, "", calls[0].Source)
	assert.Equal(t, "text", calls[0].Format)
	assert.Equal(t, []string{"four"}, calls[0].Q)
}

func TestToPivotSendsSource(t *testing.T) {
	fake := &fakeTranslate{reply: func(c translateCall) string { return "two plus two" }}
	svc := newTestService(t, fake)

	got := svc.ToPivot(context.Background(), "రెండు ప్లస్ రెండు", language.Telugu)
	assert.Equal(t, "two plus two", got)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "te", calls[0].Source)
	assert.Equal(t, language.PivotCode, calls[0].Target)
}

func TestTranslateFailsOpen(t *testing.T) {
	fake := &fakeTranslate{status: http.StatusInternalServerError}
	svc := newTestService(t, fake)

	assert.Equal(t, "four", svc.Translate(context.Background(), "four", language.Tibetan))
	assert.Equal(t, "བཞི", svc.ToPivot(context.Background(), "བཞི", language.Tibetan))
}

func TestTranslateEmptyResultFailsOpen(t *testing.T) {
	fake := &fakeTranslate{reply: func(translateCall) string { return "" }}
	svc := newTestService(t, fake)

	assert.Equal(t, "four", svc.Translate(context.Background(), "four", language.Telugu))
}

func TestIdentity(t *testing.T) {
	var tr Translator = Identity{}
	assert.Equal(t, "x", tr.Translate(context.Background(), "x", language.Telugu))
	assert.Equal(t, "y", tr.ToPivot(context.Background(), "y", language.Hawaiian))
}
