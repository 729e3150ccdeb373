package votemigrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the voting module's migration set.
var Migrations = migrate.NewMigrations()
