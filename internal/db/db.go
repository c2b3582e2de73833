// Package db holds the embedded schema migrations.
package db

import "embed"

// MigrationFS contains the SQL migration files applied at startup.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
