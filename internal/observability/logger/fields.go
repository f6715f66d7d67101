package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - SYNC
// =================================================================================

// RunID identifica una corrida del sync.
func RunID(v string) zap.Field {
	return zap.String("run_id", v)
}

// Mode es el modo de la corrida (dry-run, simulate, write, confirm).
func Mode(v string) zap.Field {
	return zap.String("mode", v)
}

// RecordID es el id del registro en Airtable.
func RecordID(v string) zap.Field {
	return zap.String("record_id", v)
}

// Patente del móvil.
func Patente(v string) zap.Field {
	return zap.String("patente", v)
}

// Table es la tabla de Airtable o SQL involucrada.
func Table(v string) zap.Field {
	return zap.String("table", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Addr es una dirección de escucha.
func Addr(v string) zap.Field {
	return zap.String("addr", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// Duration crea un campo para una duración.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// =================================================================================
// ALIASES
// =================================================================================

var (
	String = zap.String
	Int    = zap.Int
	Int64  = zap.Int64
	Bool   = zap.Bool
	Any    = zap.Any
)
