// Package state is the client's key/value persistence. Values are JSON
// documents; every driver reports writes made through any handle on the
// same backing store to its watchers.
package state

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"
)

const (
	KeyConversations	= "conversations"
	KeyActiveConversation	= "activeConversationId"
	KeyLanguage		= "language"
	KeyTotalMessageCount	= "totalMessageCount"
	KeyPermanentBlock	= "permanentBlock"
	KeyAuthenticatedUser	= "authenticatedUser"
)

// Keys lists every key the client persists.
var Keys = []string{
	KeyConversations,
	KeyActiveConversation,
	KeyLanguage,
	KeyTotalMessageCount,
	KeyPermanentBlock,
	KeyAuthenticatedUser,
}

var (
	ErrInvalidStoreType	= errors.New("state: unknown store type")
	ErrInvalidConfig	= errors.New("state: invalid store configuration")
	ErrClosed		= errors.New("state: store is closed")
)

// Change is delivered to watchers. Value is nil when the key was removed.
type Change struct {
	Key	string
	Value	[]byte
}

type Store interface {
	// Get returns (nil, false, nil) for a missing key.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Watch streams changes to keys until ctx is done. No keys means all keys.
	Watch(ctx context.Context, keys ...string) (<-chan Change, error)
	Close() error
}

// Load decodes key into a value of type T, returning def when the key is
// missing or its value cannot be parsed.
func Load[T any](ctx context.Context, s Store, key string, def T) T {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		logrus.Errorf("Ошибка чтения ключа %q: %v", key, err)
		return def
	}
	if !ok {
		return def
	}
	return Decode(key, raw, def)
}

func Decode[T any](key string, raw []byte, def T) T {
	if raw == nil {
		return def
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		logrus.Errorf("Ошибка разбора значения ключа %q: %v", key, err)
		return def
	}
	return v
}

func Save(ctx context.Context, s Store, key string, v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func wanted(keys []string, key string) bool {
	if len(keys) == 0 {
		return true
	}
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
