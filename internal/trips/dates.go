package trips

import (
	"strings"
	"time"
)

// DefaultBirthDate se usa cuando el chofer no trae fecha de nacimiento.
var DefaultBirthDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// isoLayouts cubren lo que entrega Airtable (date y dateTime) y cargas a mano.
// Los layouts sin cero ("2006-1-2") aceptan también día y mes con cero.
var isoLayouts = []string{
	"2006-1-2",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// localLayouts son los formatos día/mes/año habituales en Argentina
// (5/1/2024 o 05/01/2024).
var localLayouts = []string{"2/1/2006", "2-1-2006"}

// ParseFecha interpreta v como fecha (ISO primero, luego dd/mm/yyyy y
// dd-mm-yyyy). Retorna solo la parte de fecha, en UTC.
func ParseFecha(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layouts := range [][]string{isoLayouts, localLayouts} {
		for _, l := range layouts {
			if t, err := time.Parse(l, s); err == nil {
				y, m, d := t.Date()
				return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
			}
		}
	}
	return time.Time{}, false
}

// birthDateKeys son los nombres de campo conocidos para la fecha de nacimiento.
var birthDateKeys = []string{"Fecha_Nacimiento", "fecha_nacimiento", "FechaNacimiento", "Fecha de Nacimiento"}

// BirthDate retorna la fecha de nacimiento del chofer o DefaultBirthDate.
func BirthDate(f Fields) time.Time {
	if t, ok := ParseFecha(f.First(birthDateKeys...)); ok {
		return t
	}
	return DefaultBirthDate
}
