// Package migrations ships the Postgres schema as ordered SQL files.
package migrations

import "embed"

// FS holds every NNNN_name.sql migration and its NNNN_name_rollback.sql counterpart.
//
//go:embed *.sql
var FS embed.FS
