package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"eduglobe/internal/conversation"
	"eduglobe/internal/exchange"
	"eduglobe/internal/language"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPExchangerSendsRequest(t *testing.T) {
	var got exchange.Request
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chatResponse":"4","chatName":"Addition"}`))
	}))
	defer srv.Close()

	history := []conversation.Message{}
	ex := NewHTTPExchanger(srv.URL+"/", srv.Client())
	resp, err := ex.SendMessage(context.Background(), &exchange.Request{
		Text:		"2+2?",
		Language:	language.Telugu,
		History:	&history,
		GenerateName:	true,
	}, true)
	require.NoError(t, err)

	assert.Equal(t, "4", resp.ChatResponse)
	require.NotNil(t, resp.ChatName)
	assert.Equal(t, "Addition", *resp.ChatName)

	assert.Equal(t, "Bearer "+placeholderToken, auth)
	assert.Equal(t, "2+2?", got.Text)
	assert.Equal(t, language.Telugu, got.Language)
	assert.True(t, got.GenerateName)
	require.NotNil(t, got.History)
	assert.Empty(t, *got.History)
}

func TestHTTPExchangerGuestHasNoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"chatResponse":"ok","chatName":null}`))
	}))
	defer srv.Close()

	history := []conversation.Message{}
	resp, err := NewHTTPExchanger(srv.URL, nil).SendMessage(context.Background(), &exchange.Request{
		Text: "q", Language: language.English, History: &history,
	}, false)
	require.NoError(t, err)
	assert.Nil(t, resp.ChatName)
}

func TestHTTPExchangerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"GEMINI_API_KEY is not configured"}`))
	}))
	defer srv.Close()

	history := []conversation.Message{}
	_, err := NewHTTPExchanger(srv.URL, nil).SendMessage(context.Background(), &exchange.Request{
		Text: "q", Language: language.English, History: &history,
	}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "GEMINI_API_KEY is not configured")
}
