package trips

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var cuitInText = regexp.MustCompile(`(\d{10,12})`)

// ExtractCUIT busca el CUIT del chofer en sus campos propios; si no está y
// el campo Chofer contiene una secuencia de 10 a 12 dígitos, usa esa.
func ExtractCUIT(f Fields) string {
	if c := trimmed(f.First("CUIT", "Cuit", "cuit", "Chofer_CUIT")); c != "" {
		return c
	}
	chofer := f.First("Chofer", "chofer")
	if chofer == nil {
		return ""
	}
	if m := cuitInText.FindStringSubmatch(toString(chofer)); m != nil {
		return m[1]
	}
	return ""
}

// SplitChoferName separa "Juan Carlos Pérez" en nombre "Juan" y apellido
// "Carlos Pérez".
func SplitChoferName(name string) (nombre, apellido string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// toInt64 convierte como lo haría una carga manual: enteros en texto o
// números (truncando decimales). Texto no entero => false.
func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return int64(x), true
	case int:
		return int64(x), true
	case int64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// OrigenID resuelve el id de predio del campo Origen. Puede venir como
// objeto ({id: ...}) o directamente como el id ("59400").
func OrigenID(f Fields) (int64, bool) {
	raw := f.First("Origen", "origen")
	if obj, ok := raw.(map[string]any); ok {
		raw = Fields(obj).First("id", "Id", "ID")
	}
	if !truthy(raw) {
		return 0, false
	}
	return toInt64(raw)
}
