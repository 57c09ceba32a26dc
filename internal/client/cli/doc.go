// Package cli provides the interactive careerkeeper command-line client.
//
// It wires configuration, the encrypted vault, the remote store and the
// storage services, then runs a REPL over them. The client works fully
// offline; with a remote DSN and an access token it also syncs, and a
// background watcher replays queued writes whenever the remote store
// becomes reachable again.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See NewApp, App.StartOnlineStatusWatcher and runREPL for details.
package cli
