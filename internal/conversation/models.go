package conversation

import (
	"time"

	"eduglobe/internal/language"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser	Role	= "user"
	RoleAI		Role	= "ai"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAI
}

// LimitMessageID identifies the usage-limit notice. NewID never returns it.
const LimitMessageID = "limit-message"

type Message struct {
	ID		string			`json:"id"`
	Role		Role			`json:"role"`
	Text		string			`json:"text"`
	Language	language.Language	`json:"language"`
}

type Conversation struct {
	ID		string		`json:"id"`
	Name		string		`json:"name"`
	Messages	[]Message	`json:"messages"`
	CreatedAt	time.Time	`json:"createdAt,omitempty"`
}

func NewID() string {
	return uuid.New().String()
}

func NewMessage(role Role, text string, lang language.Language) Message {
	return Message{
		ID:		NewID(),
		Role:		role,
		Text:		text,
		Language:	lang,
	}
}

func LimitNotice(lang language.Language) Message {
	return Message{
		ID:		LimitMessageID,
		Role:		RoleAI,
		Text:		lang.UI().LimitReached,
		Language:	lang,
	}
}

func New(name string) Conversation {
	return Conversation{
		ID:		NewID(),
		Name:		name,
		Messages:	[]Message{},
		CreatedAt:	time.Now(),
	}
}

// Turn is a role/text pair handed to the generation relay.
type Turn struct {
	Role	Role
	Text	string
}
