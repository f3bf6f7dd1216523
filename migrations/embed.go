// Package migrations embeds the SQL schema so the binary does not depend on the working directory.
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql files applied by golang-migrate.
//
//go:embed *.sql
var FS embed.FS
