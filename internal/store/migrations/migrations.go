// Package migrations embeds the SQL schema of the hub database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
