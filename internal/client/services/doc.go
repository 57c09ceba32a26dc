// Package services implements the per-entity storage modules of the client:
// jobs, resumes, skills and the coach records (role models, target jobs).
//
// Every module follows the same pattern. Reads lock the collection's storage
// key, load it from the vault and, when the session has a user, replay the
// outbox, fetch the remote copy and merge it in (syncx.Merge) before writing
// the result back. Mutations lock, apply the change locally, persist it and
// then mirror it to the remote store; a failed remote write is queued in the
// outbox. The outcome of the remote half is reported as a SyncResult.
package services
