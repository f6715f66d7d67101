// Package lock evita que dos corridas de sync se pisen. Con Redis el lock es
// compartido entre hosts; sin Redis alcanza con el lock en memoria del
// proceso (modo watch).
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrLocked indica que otra corrida tiene el lock.
var ErrLocked = errors.New("lock: already held")

// Release libera el lock. Es seguro llamarla más de una vez.
type Release func(ctx context.Context) error

// Locker adquiere locks con TTL.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error)
}

// Memory es un Locker en proceso.
type Memory struct {
	mu   sync.Mutex
	held map[string]memEntry
	now  func() time.Time
}

type memEntry struct {
	token   string
	expires time.Time
}

func NewMemory() *Memory {
	return &Memory{held: map[string]memEntry{}, now: time.Now}
}

func (m *Memory) Acquire(_ context.Context, key string, ttl time.Duration) (Release, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.held[key]; ok && now.Before(e.expires) {
		return nil, ErrLocked
	}
	token := uuid.NewString()
	m.held[key] = memEntry{token: token, expires: now.Add(ttl)}

	return func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		// Solo se borra si sigue siendo nuestro (pudo expirar y tomarlo otro).
		if e, ok := m.held[key]; ok && e.token == token {
			delete(m.held, key)
		}
		return nil
	}, nil
}
