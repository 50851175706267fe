// Package migrations holds the schema of the users and quiz_results tables.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is applied by the migrate command and on server start.
var Migrations = migrate.NewMigrations()
