package trips

import (
	"regexp"
	"strconv"
	"strings"
)

// Claves de toneladas por tipo de producto.
var (
	PulpableKeys  = []string{"TNPulpable", "TN_Pulpable", "TN Pulpable"}
	AserrableKeys = []string{"TNAserrable", "TN_Aserrable", "TN_Rollos"}
	ChipKeys      = []string{"TNChips", "TN_Chips", "TN_Chip"}
)

var numberInText = regexp.MustCompile(`[-+]?[0-9]*\.?[0-9]+`)

// NumericField toma la primera clave presente en f y la convierte a float.
// Acepta números, booleanos y texto ("12,5 tn" -> 12.5). Si la clave está
// pero no se puede leer un número, sigue con la próxima. Sin match => def.
func NumericField(f Fields, keys []string, def float64) float64 {
	for _, k := range keys {
		v, ok := f[k]
		if !ok {
			continue
		}
		if n, ok := toFloat(v); ok {
			return n
		}
	}
	return def
}

func toFloat(v any) (float64, bool) {
	if !truthy(v) {
		return 0, true
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		return 1, true
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return n, true
		}
	}
	m := numberInText.FindString(strings.ReplaceAll(toString(v), ",", "."))
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
