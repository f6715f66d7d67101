// Package sqlite embeds the SQL migrations for the sqlite "moviles" schema.
package sqlite

import "embed"

// FS contains the *_up.sql migrations.
//
//go:embed *.sql
var FS embed.FS

// Dir is the directory within FS where migrations live.
const Dir = "."
