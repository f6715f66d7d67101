// Package util tiene helpers chicos sin dependencias del dominio.
package util

import "strings"

// MaskEmail deja la primera letra del usuario y del dominio: "o…@e….com".
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	i := strings.IndexByte(s, '@')
	if i <= 0 {
		return MaskSecret(s)
	}
	user, dom := s[:i], s[i+1:]
	if len(user) > 1 {
		user = user[:1] + "…"
	}
	dparts := strings.Split(dom, ".")
	if len(dparts) > 0 && len(dparts[0]) > 1 {
		dparts[0] = dparts[0][:1] + "…"
	}
	return user + "@" + strings.Join(dparts, ".")
}

// MaskEmails aplica MaskEmail a cada destinatario.
func MaskEmails(list []string) string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, MaskEmail(s))
	}
	return strings.Join(out, ",")
}

// MaskSecret deja ver solo el prefijo de un token ("patAB…"). Los valores
// cortos se tapan enteros.
func MaskSecret(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "***"
	default:
		return s[:5] + "…"
	}
}
