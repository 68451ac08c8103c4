// Package migrations embeds the server database schema migrations so the
// binary can run them with goose without shipping separate files.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
