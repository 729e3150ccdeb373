package eventmigrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the event module's migration set.
var Migrations = migrate.NewMigrations()
