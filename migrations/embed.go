// Package migrations embeds the session-store schema so goose can apply it
// from the postgres bootstrap in cmd/api and from the repo test suite.
package migrations

import "embed"

// FS holds the *.sql migration files. Hand it to goose.NewProvider or
// goose.UpFS; nothing reads migrations from disk at runtime.
//
//go:embed *.sql
var FS embed.FS
