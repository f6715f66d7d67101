package syncer

import (
	"io"
	"sync"

	"github.com/bytedance/sonic"
)

// event es una línea del reporte. Las keys salen ordenadas.
type event map[string]any

// reporter escribe el reporte de la corrida como JSON lines (una por evento),
// el mismo formato que consumen los scripts de cron.
type reporter struct {
	mu  sync.Mutex
	out io.Writer
}

func (r *reporter) emit(e event) {
	if r == nil || r.out == nil {
		return
	}
	b, err := sonic.ConfigStd.Marshal(e)
	if err != nil {
		// Campos de Airtable no serializables: se reporta igual el resto.
		b, _ = sonic.ConfigStd.Marshal(event{"error": "report_marshal_failed", "message": err.Error()})
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = r.out.Write(append(b, '\n'))
}
