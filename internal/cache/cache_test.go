package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemo_GetSet(t *testing.T) {
	m := New(0)

	_, ok := m.Get(KindMovil, "AB123CD")
	assert.False(t, ok)

	m.Set(KindMovil, "AB123CD", 42)
	id, ok := m.Get(KindMovil, "AB123CD")
	require.True(t, ok)
	assert.EqualValues(t, 42, id)

	// Mismo valor, otra tabla.
	_, ok = m.Get(KindPersonal, "AB123CD")
	assert.False(t, ok)

	st := m.Stats()
	assert.Equal(t, 1, st.Keys)
	assert.EqualValues(t, 1, st.Hits)
	assert.EqualValues(t, 2, st.Misses)
}

func TestMemo_Flush(t *testing.T) {
	m := New(time.Minute)
	m.Set(KindPredio, "59400", 59400)
	m.Set(KindPersonal, "20123456789", 7)

	m.Flush()
	_, ok := m.Get(KindPredio, "59400")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Stats().Keys)
}

func TestMemo_Expiration(t *testing.T) {
	m := New(10 * time.Millisecond)
	m.Set(KindMovil, "X", 1)
	time.Sleep(30 * time.Millisecond)
	_, ok := m.Get(KindMovil, "X")
	assert.False(t, ok)
}
