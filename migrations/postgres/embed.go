// Package postgres embeds the SQL migrations for the postgres "moviles" schema.
package postgres

import "embed"

// FS contains the *_up.sql migrations.
//
//go:embed *.sql
var FS embed.FS

// Dir is the directory within FS where migrations live.
const Dir = "."
