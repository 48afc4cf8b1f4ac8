package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"eduglobe/internal/conversation"
	"eduglobe/internal/exchange"
	"eduglobe/internal/language"
	"eduglobe/internal/state"

	"github.com/sirupsen/logrus"
)

var (
	ErrEmptyMessage			= errors.New("сообщение пустое")
	ErrNoActiveConversation		= errors.New("нет активного чата")
	ErrLimitReached			= errors.New("достигнут лимит бесплатных сообщений")
	ErrGuestChatLimit		= errors.New("достигнут лимит чатов для гостя")
	ErrConversationNotFound		= errors.New("чат не найден")
	ErrUnknownLanguage		= errors.New("неизвестный язык")
	ErrExchangeFailed		= errors.New("не удалось получить ответ")
)

const (
	DefaultFreeMessageLimit	= 10
	DefaultGuestChatLimit	= 5
	DefaultTimeout		= 90 * time.Second
)

type Options struct {
	FreeMessageLimit	int
	GuestChatLimit		int
	Timeout			time.Duration
	// OnChange is called, without the lock held, after a change from another
	// context has been applied.
	OnChange	func(key string)
}

type Usage struct {
	TotalMessageCount	int
	PermanentlyBlocked	bool
	Authenticated		bool
	FreeMessageLimit	int
}

// Controller owns the conversation list and usage counters of one client
// context. Every mutation is written through to the store.
type Controller struct {
	mu		sync.Mutex
	store		state.Store
	exchanger	Exchanger
	opts		Options

	conversations	conversation.List
	activeID	string
	language	language.Language
	totalCount	int
	blocked		bool
	authenticated	bool
	inFlight	int

	lastWritten	map[string][][]byte
}

func NewController(ctx context.Context, store state.Store, exchanger Exchanger, opts Options) *Controller {
	if opts.FreeMessageLimit <= 0 {
		opts.FreeMessageLimit = DefaultFreeMessageLimit
	}
	if opts.GuestChatLimit <= 0 {
		opts.GuestChatLimit = DefaultGuestChatLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	c := &Controller{
		store:		store,
		exchanger:	exchanger,
		opts:		opts,
		lastWritten:	make(map[string][][]byte),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.conversations = state.Load(ctx, store, state.KeyConversations, conversation.List{})
	if active := state.Load[*string](ctx, store, state.KeyActiveConversation, nil); active != nil {
		c.activeID = *active
	}
	c.language = state.Load(ctx, store, state.KeyLanguage, language.English)
	c.totalCount = state.Load(ctx, store, state.KeyTotalMessageCount, 0)
	c.blocked = state.Load(ctx, store, state.KeyPermanentBlock, false)
	c.authenticated = state.Load(ctx, store, state.KeyAuthenticatedUser, false)

	var dirty []string
	if c.fixActive() {
		dirty = append(dirty, state.KeyActiveConversation)
	}
	if c.ensureLimitNotice() {
		dirty = append(dirty, state.KeyConversations)
	}
	c.persist(ctx, dirty...)

	return c
}

// Send runs one exchange for text in the active conversation.
//
// Refusals (blank text, no active conversation, usage limit) return an error
// and leave the conversation untouched. Otherwise the user message is
// appended before the request and the returned message is the AI reply or,
// when the exchange failed, the localized error bubble together with an
// error wrapping ErrExchangeFailed.
func (c *Controller) Send(ctx context.Context, text string) (*conversation.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	conv := c.conversations.Get(c.activeID)
	if conv == nil {
		c.mu.Unlock()
		return nil, ErrNoActiveConversation
	}
	if !c.authenticated && c.blocked {
		c.mu.Unlock()
		return nil, ErrLimitReached
	}
	if !c.authenticated && c.totalCount >= c.opts.FreeMessageLimit {
		c.blocked = true
		dirty := []string{state.KeyPermanentBlock}
		if c.ensureLimitNotice() {
			dirty = append(dirty, state.KeyConversations)
		}
		c.persist(ctx, dirty...)
		c.mu.Unlock()
		logrus.Infof("Гостевой лимит %d сообщений исчерпан", c.opts.FreeMessageLimit)
		return nil, ErrLimitReached
	}

	p := c.tentative(conv, text)
	c.inFlight++
	c.persist(ctx, state.KeyConversations)
	c.mu.Unlock()

	reqCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	resp, err := c.exchanger.SendMessage(reqCtx, p.request, p.authenticated)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.inFlight--
	var reply conversation.Message
	if err != nil {
		logrus.Errorf("Не удалось получить ответ: %v", err)
		reply = c.fail(p)
	} else {
		reply = c.commit(p, resp)
	}

	dirty := []string{state.KeyConversations}
	if !p.authenticated {
		c.totalCount += 2
		dirty = append(dirty, state.KeyTotalMessageCount)
	}
	// The outcome is persisted even if the caller gave up while waiting.
	c.persist(context.WithoutCancel(ctx), dirty...)

	if err != nil {
		return &reply, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	return &reply, nil
}

// pending is an exchange between the optimistic append and its outcome.
type pending struct {
	conversationID	string
	userMessage	conversation.Message
	language	language.Language
	authenticated	bool
	request		*exchange.Request
}

func (c *Controller) tentative(conv *conversation.Conversation, text string) *pending {
	msg := conversation.NewMessage(conversation.RoleUser, text, c.language)
	conv.Append(msg)

	history := conv.History(msg.ID, conversation.LimitMessageID)
	return &pending{
		conversationID:	conv.ID,
		userMessage:	msg,
		language:	c.language,
		authenticated:	c.authenticated,
		request: &exchange.Request{
			Text:		text,
			Language:	c.language,
			History:	&history,
			GenerateName:	conv.UserTurns() == 1,
		},
	}
}

// commit moves the optimistic message to the end exactly once and appends
// the reply. A conversation deleted in the meantime is left alone.
func (c *Controller) commit(p *pending, resp *exchange.Response) conversation.Message {
	reply := conversation.NewMessage(conversation.RoleAI, resp.ChatResponse, p.language)

	conv := c.conversations.Get(p.conversationID)
	if conv == nil {
		logrus.Warnf("Чат %s удален до получения ответа", p.conversationID)
		return reply
	}

	conv.Remove(p.userMessage.ID)
	conv.Append(p.userMessage, reply)
	if resp.ChatName != nil && *resp.ChatName != "" {
		conv.Name = *resp.ChatName
	}
	return reply
}

// fail keeps the optimistic message and appends one error bubble.
func (c *Controller) fail(p *pending) conversation.Message {
	bubble := conversation.NewMessage(conversation.RoleAI, p.language.UI().Error, p.language)

	conv := c.conversations.Get(p.conversationID)
	if conv == nil {
		logrus.Warnf("Чат %s удален до получения ответа", p.conversationID)
		return bubble
	}
	conv.Append(bubble)
	return bubble
}

// NewConversation creates and selects an empty conversation named with the
// localized placeholder. Guests are capped at GuestChatLimit conversations.
func (c *Controller) NewConversation(ctx context.Context) (conversation.Conversation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.authenticated && len(c.conversations) >= c.opts.GuestChatLimit {
		return conversation.Conversation{}, ErrGuestChatLimit
	}

	conv := conversation.New(c.language.UI().NewChat)
	c.conversations = c.conversations.Prepend(conv)
	c.activeID = conv.ID
	c.ensureLimitNotice()
	c.persist(ctx, state.KeyConversations, state.KeyActiveConversation)

	return c.conversations.Get(conv.ID).Clone(), nil
}

// DeleteConversation removes id. When it was active the most recent
// remaining conversation becomes active, or none.
func (c *Controller) DeleteConversation(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	remaining, ok := c.conversations.Delete(id)
	if !ok {
		return ErrConversationNotFound
	}
	c.conversations = remaining

	dirty := []string{state.KeyConversations}
	if c.activeID == id {
		c.activeID = c.conversations.MostRecent()
		dirty = append(dirty, state.KeyActiveConversation)
		if c.ensureLimitNotice() {
			dirty = append(dirty, state.KeyConversations)
		}
	}
	c.persist(ctx, dirty...)
	return nil
}

func (c *Controller) DeleteActive(ctx context.Context) error {
	c.mu.Lock()
	id := c.activeID
	c.mu.Unlock()

	if id == "" {
		return ErrNoActiveConversation
	}
	return c.DeleteConversation(ctx, id)
}

func (c *Controller) Select(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conversations.Get(id) == nil {
		return ErrConversationNotFound
	}
	c.activeID = id

	dirty := []string{state.KeyActiveConversation}
	if c.ensureLimitNotice() {
		dirty = append(dirty, state.KeyConversations)
	}
	c.persist(ctx, dirty...)
	return nil
}

func (c *Controller) SetLanguage(ctx context.Context, lang language.Language) error {
	if !lang.Known() {
		return ErrUnknownLanguage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.language = lang
	c.persist(ctx, state.KeyLanguage)
	return nil
}

// ToggleLogin flips the authentication flag and returns the new value.
// Logging in removes every limit notice; the counter and latch stay as they are.
func (c *Controller) ToggleLogin(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.authenticated = !c.authenticated
	dirty := []string{state.KeyAuthenticatedUser}
	if c.authenticated {
		if c.purgeLimitNotices() {
			dirty = append(dirty, state.KeyConversations)
		}
	} else if c.ensureLimitNotice() {
		dirty = append(dirty, state.KeyConversations)
	}
	c.persist(ctx, dirty...)
	return c.authenticated
}

func (c *Controller) Conversations() conversation.List {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversations.Clone()
}

// Active returns a copy of the active conversation, or nil.
func (c *Controller) Active() *conversation.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()

	conv := c.conversations.Get(c.activeID)
	if conv == nil {
		return nil
	}
	clone := conv.Clone()
	return &clone
}

func (c *Controller) ActiveID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

func (c *Controller) Language() language.Language {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}

func (c *Controller) Usage() Usage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Usage{
		TotalMessageCount:	c.totalCount,
		PermanentlyBlocked:	c.blocked,
		Authenticated:		c.authenticated,
		FreeMessageLimit:	c.opts.FreeMessageLimit,
	}
}

// Loading reports whether any exchange is still waiting for the orchestrator.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight > 0
}

func (c *Controller) InputDisabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return (!c.authenticated && c.blocked) || c.conversations.Get(c.activeID) == nil
}

func (c *Controller) Placeholder() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ui := c.language.UI()
	if !c.authenticated && c.blocked {
		return ui.LimitPlaceholder
	}
	return ui.ChatPlaceholder
}

// fixActive keeps activeID pointing at an existing conversation whenever
// there is one. Reports whether activeID changed.
func (c *Controller) fixActive() bool {
	if c.activeID != "" && c.conversations.Get(c.activeID) != nil {
		return false
	}
	next := c.conversations.MostRecent()
	changed := next != c.activeID
	c.activeID = next
	return changed
}

// ensureLimitNotice appends the limit notice to the active conversation of a
// latched guest session once. Reports whether a notice was added.
func (c *Controller) ensureLimitNotice() bool {
	if c.authenticated || !c.blocked {
		return false
	}
	conv := c.conversations.Get(c.activeID)
	if conv == nil || conv.Has(conversation.LimitMessageID) {
		return false
	}
	conv.Append(conversation.LimitNotice(c.language))
	return true
}

func (c *Controller) purgeLimitNotices() bool {
	removed := false
	for i := range c.conversations {
		if c.conversations[i].Remove(conversation.LimitMessageID) {
			removed = true
		}
	}
	return removed
}
