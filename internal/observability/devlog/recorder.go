package devlog

import "sync"

// Call es una escritura capturada por Recorder.
type Call struct {
	Channel Channel
	Values  []any
}

// Recorder es un Sink que guarda cada escritura. Pensado para tests.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

func (r *Recorder) Write(ch Channel, values ...any) {
	cp := make([]any, len(values))
	copy(cp, values)
	r.mu.Lock()
	r.calls = append(r.calls, Call{Channel: ch, Values: cp})
	r.mu.Unlock()
}

// Calls retorna una copia de las escrituras en orden de llegada.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// On retorna solo las escrituras de un canal.
func (r *Recorder) On(ch Channel) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Channel == ch {
			out = append(out, c)
		}
	}
	return out
}

// Reset descarta lo grabado.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}
