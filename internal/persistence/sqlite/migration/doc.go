// Package migration applies versioned SQL schema changes to a SQLite
// database.
//
// Migrations are read from an fs.FS (typically an embed.FS compiled into the
// binary) and must follow the naming convention {version}_{description}.sql,
// for example "001_create_events.sql". Each migration runs inside its own
// transaction and is recorded in the schema_migrations table so it is never
// applied twice.
//
// Example usage:
//
//	manager := NewMigrationManager(NewFileScanner(files), NewSQLiteExecutor(db), logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return fmt.Errorf("migrate: %w", err)
//	}
package migration
