package state

import (
	"bytes"
	"context"
	"sync"
)

const watchBuffer = 64

// watcher holds at most one pending change per key, the newest one. A slow
// reader sees intermediate values collapsed but always ends on the last write.
type watcher struct {
	keys	[]string
	ch	chan Change

	mu	sync.Mutex
	pending	map[string]Change
	order	[]string
	wake	chan struct{}
	quit	chan struct{}
	once	sync.Once
}

func newWatcher(keys []string) *watcher {
	return &watcher{
		keys:		keys,
		ch:		make(chan Change, watchBuffer),
		pending:	make(map[string]Change),
		wake:		make(chan struct{}, 1),
		quit:		make(chan struct{}),
	}
}

func (w *watcher) push(c Change) {
	w.mu.Lock()
	if _, ok := w.pending[c.Key]; !ok {
		w.order = append(w.order, c.Key)
	}
	w.pending[c.Key] = c
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *watcher) take() []Change {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]Change, 0, len(w.order))
	for _, k := range w.order {
		out = append(out, w.pending[k])
	}
	w.order = nil
	clear(w.pending)
	return out
}

func (w *watcher) stop() {
	w.once.Do(func() { close(w.quit) })
}

// run forwards pending changes to ch until stop is called, then closes ch.
func (w *watcher) run() {
	defer close(w.ch)
	for {
		select {
		case <-w.quit:
			return
		case <-w.wake:
		}
		for _, c := range w.take() {
			select {
			case w.ch <- c:
			case <-w.quit:
				return
			}
		}
	}
}

// memoryStore keeps values in a map. Handles sharing one memoryStore behave
// like browser tabs sharing localStorage.
type memoryStore struct {
	mu		sync.RWMutex
	values		map[string][]byte
	watchers	map[*watcher]struct{}
	closed		bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		values:		make(map[string][]byte),
		watchers:	make(map[*watcher]struct{}),
	}
}

func (s *memoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, ErrClosed
	}
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

func (s *memoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.values[key] = bytes.Clone(value)
	s.notify(Change{Key: key, Value: bytes.Clone(value)})
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	s.notify(Change{Key: key})
	return nil
}

// notify must be called with mu held. It never blocks on a watcher.
func (s *memoryStore) notify(c Change) {
	for w := range s.watchers {
		if wanted(w.keys, c.Key) {
			w.push(c)
		}
	}
}

func (s *memoryStore) Watch(ctx context.Context, keys ...string) (<-chan Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	w := newWatcher(keys)
	s.watchers[w] = struct{}{}
	go w.run()

	go func() {
		select {
		case <-ctx.Done():
		case <-w.quit:
			return
		}
		s.mu.Lock()
		delete(s.watchers, w)
		s.mu.Unlock()
		w.stop()
	}()

	return w.ch, nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	for w := range s.watchers {
		w.stop()
		delete(s.watchers, w)
	}
	s.values = nil
	return nil
}
