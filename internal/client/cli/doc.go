// Package cli provides the interactive toolshare command-line client.
//
// It drives the session manager and the account and directory services from
// a REPL: sign in, edit the profile, upload an avatar, look up neighbors.
// A background watcher prints session changes made by other processes
// sharing the session store, as relayed through Redis.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, runREPL and watchEvents for details.
package cli
