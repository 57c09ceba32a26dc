// Package client bootstraps the two databases the careerkeeper client talks to.
//
// # Overview
//
//  1. The local vault database (InitDatabase): a SQLite file opened with the
//     pure-Go modernc.org/sqlite driver and migrated with the embedded goose
//     migrations from internal/client/migrations. It holds the "kv" table the
//     vault writes encrypted records into.
//  2. The remote relational store (OpenRemote): PostgreSQL reached through the
//     pgx database/sql driver, migrated with internal/client/remote's schema.
//     The storage services use it only when a session carries a user id.
//
// # Error Handling
//
// Connectivity problems with the remote store are reported as ErrUnavailable
// so callers can drop into local-only mode. Match with errors.Is.
package client
