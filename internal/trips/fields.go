// Package trips traduce los campos de un registro de Airtable (cargados a
// mano desde la PWA, con nombres y tipos inconsistentes) a un Trip listo
// para persistir. Todo es puro: sin I/O.
package trips

import (
	"fmt"
	"strconv"
	"strings"
)

// Fields son los campos crudos de un registro.
type Fields map[string]any

// truthy define qué cuenta como cargado al elegir entre claves: nil, "",
// 0, false y colecciones vacías cuentan como ausentes.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

// First retorna el primer valor "truthy" entre keys.
func (f Fields) First(keys ...string) any {
	for _, k := range keys {
		if v, ok := f[k]; ok && truthy(v) {
			return v
		}
	}
	return nil
}

// String es First convertido a texto ("" si no hay valor).
func (f Fields) String(keys ...string) string {
	return toString(f.First(keys...))
}

// toString convierte un valor de Airtable a texto sin notación científica.
func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(x)
	}
}

// optionalString es como String pero distingue ausente (nil).
func (f Fields) optionalString(keys ...string) *string {
	v := f.First(keys...)
	if v == nil {
		return nil
	}
	s := toString(v)
	return &s
}

// trimmed es toString + TrimSpace.
func trimmed(v any) string {
	return strings.TrimSpace(toString(v))
}
