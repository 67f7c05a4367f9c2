// Package migrations embeds the goose SQL migrations so the server binary
// can bring its own schema up to date without an external migrations dir.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
