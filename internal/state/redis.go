package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// redisStore keeps each key under "<namespace>:<key>" and announces writes
// on the "<namespace>:changes" channel.
type redisStore struct {
	client		*redis.Client
	namespace	string
}

type redisEvent struct {
	Key	string		`json:"key"`
	Value	json.RawMessage	`json:"value,omitempty"`
	Deleted	bool		`json:"deleted,omitempty"`
}

func (s *redisStore) key(k string) string {
	return s.namespace + ":" + k
}

func (s *redisStore) channel() string {
	return s.namespace + ":changes"
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("не удалось прочитать ключ %q: %w", key, err)
	}
	return val, true, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte) error {
	event, err := json.Marshal(redisEvent{Key: key, Value: value})
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(key), value, 0)
		pipe.Publish(ctx, s.channel(), event)
		return nil
	})
	if err != nil {
		return fmt.Errorf("не удалось сохранить ключ %q: %w", key, err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	event, err := json.Marshal(redisEvent{Key: key, Deleted: true})
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(key))
		pipe.Publish(ctx, s.channel(), event)
		return nil
	})
	if err != nil {
		return fmt.Errorf("не удалось удалить ключ %q: %w", key, err)
	}
	return nil
}

func (s *redisStore) Watch(ctx context.Context, keys ...string) (<-chan Change, error) {
	sub := s.client.Subscribe(ctx, s.channel())
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("не удалось подписаться на %s: %w", s.channel(), err)
	}

	ch := make(chan Change, watchBuffer)
	go func() {
		defer close(ch)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev redisEvent
				if err := json.NewDecoder(strings.NewReader(msg.Payload)).Decode(&ev); err != nil {
					logrus.Warnf("Некорректное событие состояния: %v", err)
					continue
				}
				if !wanted(keys, ev.Key) {
					continue
				}
				c := Change{Key: ev.Key}
				if !ev.Deleted {
					c.Value = []byte(ev.Value)
				}
				select {
				case ch <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
