package photomigrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the photo module's migration set.
var Migrations = migrate.NewMigrations()
