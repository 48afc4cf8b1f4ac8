package exchange

import (
	"errors"
	"fmt"
	"strings"

	"eduglobe/internal/conversation"
	"eduglobe/internal/language"
)

var (
	ErrInvalidRequest	= errors.New("некорректный запрос")
	ErrNotConfigured	= errors.New("GEMINI_API_KEY не настроен")
	ErrGeneration		= errors.New("ошибка генерации ответа")
)

// Request is the body of POST /api/sendMessage. History is a pointer so that
// a missing field can be told apart from an empty conversation.
type Request struct {
	Text		string			`json:"text"`
	Language	language.Language	`json:"language"`
	History		*[]conversation.Message	`json:"history"`
	GenerateName	bool			`json:"generateName"`
}

type Response struct {
	ChatResponse	string	`json:"chatResponse"`
	ChatName	*string	`json:"chatName"`
}

func (r *Request) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("%w: отсутствует поле text", ErrInvalidRequest)
	}
	if r.Language == "" {
		return fmt.Errorf("%w: отсутствует поле language", ErrInvalidRequest)
	}
	if r.History == nil {
		return fmt.Errorf("%w: отсутствует поле history", ErrInvalidRequest)
	}
	for i, m := range *r.History {
		if !m.Role.Valid() {
			return fmt.Errorf("%w: неизвестная роль %q в history[%d]", ErrInvalidRequest, m.Role, i)
		}
	}
	return nil
}

func (r *Request) history() []conversation.Message {
	if r.History == nil {
		return nil
	}
	return *r.History
}

// firstUserTurn reports whether the new text is the first USER message.
func (r *Request) firstUserTurn() bool {
	for _, m := range r.history() {
		if m.Role == conversation.RoleUser {
			return false
		}
	}
	return true
}

type State int

const (
	StateReceived	State	= iota
	StateNormalized
	StateGenerated
	StateLocalized
	StateTitled
	StateResponded
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "RECEIVED"
	case StateNormalized:
		return "NORMALIZED"
	case StateGenerated:
		return "GENERATED"
	case StateLocalized:
		return "LOCALIZED"
	case StateTitled:
		return "TITLED"
	case StateResponded:
		return "RESPONDED"
	case StateErrored:
		return "ERRORED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}
