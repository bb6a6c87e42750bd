// Package migrations embeds the SQL schema migrations applied by the durable order store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
