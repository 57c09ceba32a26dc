// Package models defines the career records kept by the client: saved jobs,
// resume profiles, custom skills, role models and target jobs.
//
// Timestamps are epoch milliseconds. Conversion to the remote ISO-8601 form
// happens in the remote store (see timex).
package models
