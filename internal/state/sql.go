package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

const defaultPollInterval = 2 * time.Second

const schema = `
	CREATE TABLE IF NOT EXISTS client_state (
		state_key	TEXT PRIMARY KEY,
		state_value	TEXT NOT NULL,
		revision	BIGINT NOT NULL
	)
`

type row struct {
	Key		string	`db:"state_key"`
	Value		string	`db:"state_value"`
	Revision	int64	`db:"revision"`
}

// sqlStore persists values in client_state. Watchers poll revisions, so a
// change made by another process shows up within one poll interval.
type sqlStore struct {
	db	*sqlx.DB
	poll	time.Duration
	owned	bool
}

func newSQLStore(ctx context.Context, db *sqlx.DB, poll time.Duration, owned bool) (*sqlStore, error) {
	if poll <= 0 {
		poll = defaultPollInterval
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("не удалось создать таблицу client_state: %w", err)
	}
	return &sqlStore{db: db, poll: poll, owned: owned}, nil
}

func (s *sqlStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := s.db.Rebind(`SELECT state_value FROM client_state WHERE state_key = ?`)

	var value string
	err := s.db.GetContext(ctx, &value, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("не удалось прочитать ключ %q: %w", key, err)
	}
	return []byte(value), true, nil
}

func (s *sqlStore) Set(ctx context.Context, key string, value []byte) error {
	query := s.db.Rebind(`
		INSERT INTO client_state (state_key, state_value, revision)
		VALUES (?, ?, 1)
		ON CONFLICT (state_key)
		DO UPDATE SET
			state_value = excluded.state_value,
			revision = client_state.revision + 1
	`)

	if _, err := s.db.ExecContext(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("не удалось сохранить ключ %q: %w", key, err)
	}
	return nil
}

func (s *sqlStore) Delete(ctx context.Context, key string) error {
	query := s.db.Rebind(`DELETE FROM client_state WHERE state_key = ?`)

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("не удалось удалить ключ %q: %w", key, err)
	}
	return nil
}

func (s *sqlStore) snapshot(ctx context.Context) (map[string]row, error) {
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, `SELECT state_key, state_value, revision FROM client_state`); err != nil {
		return nil, err
	}
	out := make(map[string]row, len(rows))
	for _, r := range rows {
		out[r.Key] = r
	}
	return out, nil
}

func (s *sqlStore) Watch(ctx context.Context, keys ...string) (<-chan Change, error) {
	seen, err := s.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать состояние: %w", err)
	}

	ch := make(chan Change, watchBuffer)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(s.poll)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			current, err := s.snapshot(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logrus.Warnf("Ошибка опроса client_state: %v", err)
				}
				continue
			}

			var changes []Change
			for k, r := range current {
				if prev, ok := seen[k]; ok && prev.Revision == r.Revision {
					continue
				}
				if wanted(keys, k) {
					changes = append(changes, Change{Key: k, Value: []byte(r.Value)})
				}
			}
			for k := range seen {
				if _, ok := current[k]; !ok && wanted(keys, k) {
					changes = append(changes, Change{Key: k})
				}
			}
			seen = current

			for _, c := range changes {
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

func (s *sqlStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
