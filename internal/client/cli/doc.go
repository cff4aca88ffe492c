// Package cli provides the interactive Catus command-line client.
//
// It wires configuration, the local SQLite store, the HTTP request pipeline,
// and an interactive REPL for the daily diary conversation. Typical flow:
// restore the stored session, chat through the day, then end the
// conversation to turn it into a diary entry.
//
// Key features:
//   - Login via Kakao authorization code / Logout
//   - Chat with the diary assistant; turns are persisted locally first
//   - End a conversation to receive the generated diary entry
//   - Inspect and re-push days the backend has not confirmed
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
