package migrations

import "embed"

// FS holds the versioned SQL files applied at startup.
//
//go:embed *.sql
var FS embed.FS
