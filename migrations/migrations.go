// Package migrations carries the SQL schema. Files apply in lexical order.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
