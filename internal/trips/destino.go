package trips

import (
	"strings"
	"unicode"
)

// MapDestino traduce un código de destino (ej. "PPE") a su detalle. Prueba
// el valor tal cual, recortado, en mayúsculas y en formato título; si nada
// coincide retorna el valor original.
func MapDestino(raw any, destinos map[string]string) string {
	if raw == nil {
		return ""
	}
	s := toString(raw)
	if v, ok := destinos[s]; ok {
		return v
	}
	key := strings.TrimSpace(s)
	for _, k := range []string{key, upper(key), title(key)} {
		if v, ok := destinos[k]; ok {
			return v
		}
	}
	return s
}

func upper(s string) string { return strings.ToUpper(s) }

// title pone en mayúscula la primera letra de cada palabra y el resto en
// minúscula ("puerto piray" -> "Puerto Piray").
func title(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
