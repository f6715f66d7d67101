package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Viaje es la fila a escribir en moviles_viajes.
type Viaje struct {
	RecordID      string
	MovilID       int64
	ClienteID     *int64
	AreaID        *int64
	Fecha         *time.Time
	OrigenID      *int64
	Destino       string
	Producto      string
	TNPulpable    float64
	TNAserrable   float64
	TNChip        float64
	SinActividad  bool
	Motivo        *string
	Observaciones *string
	PersonalID    *int64
}

// UpsertResult indica qué pasó con la fila.
type UpsertResult struct {
	ID      int64
	Updated bool
}

type colVal struct {
	col string
	val any
}

// values arma las columnas a escribir según lo que exista en cols, en orden
// estable.
func (v Viaje) values(cols map[string]bool) []colVal {
	var fecha any
	if v.Fecha != nil {
		fecha = v.Fecha.Format(dateLayout)
	}
	all := []colVal{
		{"movil_id", v.MovilID},
		{"cliente_id", nullable(v.ClienteID)},
		{"area_id", nullable(v.AreaID)},
		{"fecha", fecha},
		{"origen_id", nullable(v.OrigenID)},
		{"destino", v.Destino},
		{"producto", v.Producto},
		{"tn_pulpable", v.TNPulpable},
		{"tn_aserrable", v.TNAserrable},
		{"tn_chip", v.TNChip},
		{"sin_actividad", v.SinActividad},
		{"motivo_sin_actividad", nullable(v.Motivo)},
		{"observaciones", nullable(v.Observaciones)},
	}
	var out []colVal
	for _, cv := range all {
		if cols[cv.col] {
			out = append(out, cv)
		}
	}
	// El chofer va a chofer_id y/o personal_id, según existan.
	if v.PersonalID != nil {
		for _, c := range []string{"chofer_id", "personal_id"} {
			if cols[c] {
				out = append(out, colVal{c, *v.PersonalID})
			}
		}
	}
	return out
}

// UpsertViaje escribe el viaje. Si la tabla tiene record_id y ya existe una
// fila para v.RecordID se actualiza (con updated_at); si no, se inserta
// (con created_at/updated_at si existen). cols viene de Columns.
func (t *Tx) UpsertViaje(ctx context.Context, cols map[string]bool, v Viaje) (UpsertResult, error) {
	vals := v.values(cols)
	now := time.Now().UTC()

	if cols["record_id"] {
		existing, ok, err := t.lookupID(ctx, "SELECT id FROM "+TableViajes+" WHERE record_id = ?", v.RecordID)
		if err != nil {
			return UpsertResult{}, fmt.Errorf("store: viaje %s: %w", v.RecordID, err)
		}
		if ok {
			if cols["updated_at"] {
				vals = append(vals, colVal{"updated_at", now})
			}
			if len(vals) > 0 {
				sets := make([]string, len(vals))
				args := make([]any, 0, len(vals)+1)
				for i, cv := range vals {
					sets[i] = cv.col + " = ?"
					args = append(args, cv.val)
				}
				args = append(args, existing)
				q := "UPDATE " + TableViajes + " SET " + strings.Join(sets, ", ") + " WHERE id = ?"
				if err := t.exec(ctx, q, args...); err != nil {
					return UpsertResult{}, fmt.Errorf("store: actualizar viaje %s: %w", v.RecordID, err)
				}
			}
			return UpsertResult{ID: existing, Updated: true}, nil
		}
		vals = append(vals, colVal{"record_id", v.RecordID})
	}

	for _, c := range []string{"created_at", "updated_at"} {
		if cols[c] {
			vals = append(vals, colVal{c, now})
		}
	}
	if len(vals) == 0 {
		return UpsertResult{}, ErrNoColumns
	}

	names := make([]string, len(vals))
	args := make([]any, len(vals))
	for i, cv := range vals {
		names[i] = cv.col
		args[i] = cv.val
	}
	q := "INSERT INTO " + TableViajes + " (" + strings.Join(names, ", ") +
		") VALUES (" + strings.TrimSuffix(strings.Repeat("?, ", len(vals)), ", ") + ")"
	id, err := t.insert(ctx, q, args...)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("store: insertar viaje %s: %w", v.RecordID, err)
	}
	return UpsertResult{ID: id}, nil
}
