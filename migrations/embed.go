// Package migrations holds the embedded goose SQL migrations for the
// analytics database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
