package client

import (
	"bytes"
	"context"

	"eduglobe/internal/conversation"
	"eduglobe/internal/language"
	"eduglobe/internal/state"

	"github.com/sirupsen/logrus"
)

const maxPendingWrites = 32

// value returns the current in-memory value for a persisted key.
func (c *Controller) value(key string) any {
	switch key {
	case state.KeyConversations:
		return c.conversations
	case state.KeyActiveConversation:
		if c.activeID == "" {
			return nil
		}
		return c.activeID
	case state.KeyLanguage:
		return c.language
	case state.KeyTotalMessageCount:
		return c.totalCount
	case state.KeyPermanentBlock:
		return c.blocked
	case state.KeyAuthenticatedUser:
		return c.authenticated
	}
	return nil
}

// persist writes keys to the store. Must be called with mu held. Failures
// are logged; the in-memory state stays authoritative for this context.
func (c *Controller) persist(ctx context.Context, keys ...string) {
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true

		raw, err := state.Save(ctx, c.store, key, c.value(key))
		if err != nil {
			logrus.Errorf("Ошибка сохранения ключа %q: %v", key, err)
			continue
		}
		pending := append(c.lastWritten[key], raw)
		if len(pending) > maxPendingWrites {
			pending = pending[len(pending)-maxPendingWrites:]
		}
		c.lastWritten[key] = pending
	}
}

// ownWrite reports whether ch echoes a write made by this context, and
// forgets that write along with any older ones.
func (c *Controller) ownWrite(ch state.Change) bool {
	if ch.Value == nil {
		return false
	}
	pending := c.lastWritten[ch.Key]
	for i, raw := range pending {
		if bytes.Equal(raw, ch.Value) {
			c.lastWritten[ch.Key] = pending[i+1:]
			return true
		}
	}
	return false
}

// apply loads a change made by another context. Must be called with mu held.
// Reports whether anything changed.
func (c *Controller) apply(ch state.Change) bool {
	if c.ownWrite(ch) {
		return false
	}

	switch ch.Key {
	case state.KeyConversations:
		c.conversations = state.Decode(ch.Key, ch.Value, conversation.List{})
	case state.KeyActiveConversation:
		c.activeID = ""
		if id := state.Decode[*string](ch.Key, ch.Value, nil); id != nil {
			c.activeID = *id
		}
	case state.KeyLanguage:
		c.language = state.Decode(ch.Key, ch.Value, language.English)
	case state.KeyTotalMessageCount:
		c.totalCount = state.Decode(ch.Key, ch.Value, 0)
	case state.KeyPermanentBlock:
		c.blocked = state.Decode(ch.Key, ch.Value, false)
	case state.KeyAuthenticatedUser:
		c.authenticated = state.Decode(ch.Key, ch.Value, false)
	default:
		return false
	}
	c.fixActive()
	return true
}

// Watch applies changes written by other contexts sharing the store until
// ctx is done. It returns once the subscription is in place.
func (c *Controller) Watch(ctx context.Context) error {
	changes, err := c.store.Watch(ctx, state.Keys...)
	if err != nil {
		return err
	}

	go func() {
		for ch := range changes {
			c.mu.Lock()
			changed := c.apply(ch)
			c.mu.Unlock()

			if changed {
				logrus.Debugf("Применено изменение ключа %q из другого контекста", ch.Key)
				if c.opts.OnChange != nil {
					c.opts.OnChange(ch.Key)
				}
			}
		}
	}()

	return nil
}
