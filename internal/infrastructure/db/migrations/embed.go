// Package migrations 內嵌 goose SQL migration 檔。
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
