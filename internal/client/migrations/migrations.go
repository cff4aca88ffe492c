// Package migrations embeds the goose migrations for the local client
// database. Schema changes are versioned; goose applies them in order on
// startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
