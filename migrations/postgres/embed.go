// Package migrations embeds SQL migration files.
package migrations

import "embed"

// KVFS contains the schema for the postgres kv store.
//
//go:embed kv/*.sql
var KVFS embed.FS

// KVDir is the directory within KVFS where migrations live.
const KVDir = "kv"
