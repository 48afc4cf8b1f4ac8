package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"eduglobe/internal/exchange"
)

const sendMessagePath = "/api/sendMessage"

// placeholderToken is sent when the toggle says the user is logged in. The
// server does not check it.
const placeholderToken = "FAKE_TOKEN"

type Exchanger interface {
	SendMessage(ctx context.Context, req *exchange.Request, authenticated bool) (*exchange.Response, error)
}

// HTTPExchanger posts to the orchestrator's /api/sendMessage.
type HTTPExchanger struct {
	baseURL	string
	client	*http.Client
}

func NewHTTPExchanger(baseURL string, client *http.Client) *HTTPExchanger {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPExchanger{
		baseURL:	strings.TrimRight(baseURL, "/"),
		client:		client,
	}
}

func (e *HTTPExchanger) SendMessage(ctx context.Context, req *exchange.Request, authenticated bool) (*exchange.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации запроса: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+sendMessagePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if authenticated {
		httpReq.Header.Set("Authorization", "Bearer "+placeholderToken)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("status %d: API request failed", resp.StatusCode)
	}

	var out exchange.Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("ошибка разбора ответа: %w", err)
	}
	return &out, nil
}
