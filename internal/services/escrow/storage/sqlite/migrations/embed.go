package migrations

import "embed"

// FS contains embedded SQLite migrations for escrow storage.
//
//go:embed *.sql
var FS embed.FS
