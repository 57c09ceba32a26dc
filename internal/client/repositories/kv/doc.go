// Package kv provides the durable key-value storage underneath the vault.
//
// Three implementations exist:
//
//   - SQLiteRepository: a "kv" table in the local SQLite database
//     (created by the goose migrations in internal/client/migrations).
//   - S3Repository: one object per key in an S3-compatible bucket, for
//     devices that keep their vault off-disk. Only already-encrypted values
//     are ever written there by the vault.
//   - MemoryRepository: a process-local map, for ephemeral sessions and
//     tests.
//
// Keys are stable collection identifiers ("jobs", "resumes", "skills", ...)
// plus a few reserved vault keys ("vault:salt", "vault:verifier").
package kv
