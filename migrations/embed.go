// README: SQL migrations embedded for the API process and DB-backed tests.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
