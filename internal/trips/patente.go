package trips

import "regexp"

// patenteKeys son los nombres de campo donde suele venir la patente.
var patenteKeys = []string{
	"Patente", "patente", "Patente_text", "Patente (texto)", "Vehiculo", "Vehículo", "Vehiculo_Patente",
	"Movil", "movil", "vehiculo", "vehicle", "vehicle_plate", "Placa", "placa", "Plate", "plate",
	"Descripcion", "Descripcion del Vehiculo", "Observaciones", "observaciones", "Notas", "note",
}

// textKeys son campos de texto libre donde buscar algo con forma de patente.
var textKeys = []string{"Observaciones", "Descripcion", "Notas", "note"}

var (
	plateToken = regexp.MustCompile(`[A-Z0-9-]{4,8}`)
	hasLetter  = regexp.MustCompile(`[A-Z]`)
	hasDigit   = regexp.MustCompile(`[0-9]`)
)

// FoundInRegex indica que la patente se extrajo de texto libre.
const FoundInRegex = "regex_from_text"

// NormalizePatente acepta las formas en que Airtable entrega la patente:
// texto, número, lista (linked record / lookup, se toma el primero) u objeto
// con name/Patente/patente. Retorna "" si no hay patente.
func NormalizePatente(v any) string {
	if !truthy(v) {
		return ""
	}
	switch x := v.(type) {
	case []any:
		return NormalizePatente(x[0])
	case map[string]any:
		return Fields(x).String("name", "Patente", "patente")
	default:
		return trimmed(x)
	}
}

// ExtractPatente busca la patente en los campos candidatos y, si no aparece,
// en el texto libre. Retorna la patente y dónde se encontró.
func ExtractPatente(f Fields) (patente, foundIn string) {
	for _, k := range patenteKeys {
		v, ok := f[k]
		if !ok {
			continue
		}
		if p := NormalizePatente(v); p != "" {
			return p, k
		}
	}

	for _, k := range textKeys {
		v := f[k]
		if !truthy(v) {
			continue
		}
		for _, m := range plateToken.FindAllString(upper(toString(v)), -1) {
			if hasLetter.MatchString(m) && hasDigit.MatchString(m) {
				return m, FoundInRegex
			}
		}
	}
	return "", ""
}
