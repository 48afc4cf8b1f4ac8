package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eduglobe/internal/exchange"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockExchanger struct {
	mock.Mock
}

func (m *MockExchanger) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockExchanger) Exchange(ctx context.Context, req *exchange.Request) (*exchange.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*exchange.Response), args.Error(1)
}

const validBody = `{"text":"What is 2+2?","language":"English","history":[],"generateName":false}`

func post(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/sendMessage", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.SendMessageHandler(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e.Error
}

func TestSendMessageMethodNotAllowed(t *testing.T) {
	m := new(MockExchanger)
	h := NewHandler(m)

	rec := httptest.NewRecorder()
	h.SendMessageHandler(rec, httptest.NewRequest(http.MethodGet, "/api/sendMessage", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method Not Allowed", decodeError(t, rec))
}

func TestSendMessageNotConfigured(t *testing.T) {
	m := new(MockExchanger)
	m.On("Configured").Return(false)

	rec := post(NewHandler(m), validBody)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "GEMINI_API_KEY is not configured", decodeError(t, rec))
	m.AssertNotCalled(t, "Exchange", mock.Anything, mock.Anything)
}

func TestSendMessageBadRequest(t *testing.T) {
	bodies := []string{
		`not json`,
		`{"language":"English","history":[]}`,
		`{"text":"q","history":[]}`,
		`{"text":"q","language":"English"}`,
		`{"text":"q","language":"English","history":[{"id":"1","role":"bot","text":"x"}]}`,
	}

	for _, body := range bodies {
		m := new(MockExchanger)
		m.On("Configured").Return(true)

		rec := post(NewHandler(m), body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.NotEmpty(t, decodeError(t, rec), body)
		m.AssertNotCalled(t, "Exchange", mock.Anything, mock.Anything)
	}
}

func TestSendMessageUpstreamFailure(t *testing.T) {
	m := new(MockExchanger)
	m.On("Configured").Return(true)
	m.On("Exchange", mock.Anything, mock.Anything).Return(nil, errors.Join(exchange.ErrGeneration, errors.New("quota")))

	rec := post(NewHandler(m), validBody)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decodeError(t, rec))
}

func TestSendMessageOK(t *testing.T) {
	m := new(MockExchanger)
	m.On("Configured").Return(true)
	m.On("Exchange", mock.Anything, mock.MatchedBy(func(r *exchange.Request) bool {
		return r.Text == "What is 2+2?" && r.History != nil && len(*r.History) == 0
	})).Return(&exchange.Response{ChatResponse: "4"}, nil)

	rec := post(NewHandler(m), validBody)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"chatResponse":"4","chatName":null}`, rec.Body.String())
	m.AssertExpectations(t)
}

func TestSendMessageWithTitle(t *testing.T) {
	title := "Simple Addition"
	m := new(MockExchanger)
	m.On("Configured").Return(true)
	m.On("Exchange", mock.Anything, mock.Anything).Return(&exchange.Response{ChatResponse: "4", ChatName: &title}, nil)

	rec := post(NewHandler(m), validBody)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"chatResponse":"4","chatName":"Simple Addition"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	m := new(MockExchanger)
	m.On("Configured").Return(true)

	rec := httptest.NewRecorder()
	NewHandler(m).HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","configured":true}`, rec.Body.String())
}
