// Copyright (c) AgentRelay Authors.
// Licensed under the MIT License.

/*
Package migration manages database schema migrations for the handover
archive, supporting PostgreSQL, MySQL and SQLite through golang-migrate.

# Overview

SQL migration files for each dialect are embedded with embed.FS and
applied through the golang-migrate engine: forward migration, rollback,
stepwise execution, jumping to a version and forcing a version number.

# Core types

  - Migrator: the migration interface with Up/Down/DownAll/Steps/Goto/
    Force/Version/Status/Info/Close.
  - DefaultMigrator: default implementation wrapping a golang-migrate
    instance and the database connection.
  - Config: database type, connection URL, migrations table and lock
    timeout.
  - DatabaseType: postgres/mysql/sqlite.
  - MigrationStatus / MigrationInfo: per-migration state and summary.
  - CLI: terminal-facing wrapper with formatted output.

# Capabilities

  - Dialect selection via DatabaseType and the embedded SQL trees.
  - Factories: NewMigratorFromConfig / NewMigratorFromDatabaseConfig /
    NewMigratorFromURL, plus NewMigratorWithDB for an existing
    connection (used by pure-Go SQLite tests).
  - CLI integration: RunUp/RunDown/RunStatus/RunInfo and friends.
  - Helpers: ParseDatabaseType and BuildDatabaseURL.
*/
package migration
