// Package cache memoriza los ids resueltos durante una corrida de sync
// (predios, choferes, móviles) para no repetir el SELECT por cada viaje.
//
// Los ids son válidos solo dentro de la transacción que los creó: ante un
// rollback hay que llamar Flush.
package cache

import (
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Prefijos de key por tabla.
const (
	KindPredio   = "predio"
	KindPersonal = "personal"
	KindMovil    = "movil"
)

// Stats contiene estadísticas del memo.
type Stats struct {
	Keys   int
	Hits   int64
	Misses int64
}

// Memo es un map id-por-key con expiración opcional.
type Memo struct {
	c      *gocache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// New crea un memo. ttl 0 => las entradas no expiran.
func New(ttl time.Duration) *Memo {
	if ttl <= 0 {
		return &Memo{c: gocache.New(gocache.NoExpiration, 0)}
	}
	return &Memo{c: gocache.New(ttl, 2*ttl)}
}

func key(kind, k string) string { return kind + ":" + k }

// Get retorna el id memorizado para kind/k.
func (m *Memo) Get(kind, k string) (int64, bool) {
	v, ok := m.c.Get(key(kind, k))
	if !ok {
		m.misses.Add(1)
		return 0, false
	}
	id, ok := v.(int64)
	if !ok {
		m.misses.Add(1)
		return 0, false
	}
	m.hits.Add(1)
	return id, true
}

// Set memoriza id para kind/k.
func (m *Memo) Set(kind, k string, id int64) {
	m.c.SetDefault(key(kind, k), id)
}

// Flush descarta todo. Los contadores se conservan.
func (m *Memo) Flush() {
	m.c.Flush()
}

// Stats retorna el estado actual del memo.
func (m *Memo) Stats() Stats {
	return Stats{
		Keys:   m.c.ItemCount(),
		Hits:   m.hits.Load(),
		Misses: m.misses.Load(),
	}
}
