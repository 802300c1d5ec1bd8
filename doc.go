// Package notefold is the session-gated synchronization core of a personal
// note-taking client.
//
// The package tracks authentication state and gates all data access on it,
// keeps a local in-memory note collection consistent with a remote
// authoritative store, and coordinates the two user-facing workflows (edit
// dialog, delete confirmation) against that store without stale overwrites.
//
// # Components
//
//   - [SessionMonitor] owns the current Session-or-none and notifies
//     dependents on every change.
//   - [CredentialGateway] performs sign-in (password or OAuth redirect),
//     sign-up, and password-reset requests, one at a time.
//   - [NoteStore] mirrors the active session's notes through list, create,
//     update, and delete, re-fetching authoritative state after every
//     mutation.
//   - [Coordinator] runs the single active UI workflow and dispatches user
//     intents into the store.
//
// [Client] wires the four together over one [pkg/api.Client]. Any UI layer,
// reactive or imperative, adapts to the core by reading state through
// Session, Notes, and State, and forwarding intents.
//
// # Usage
//
//	client, err := notefold.New(notefold.Options{
//		BaseURL:    "https://notes.example.com",
//		TokenCache: credstore.NewFile(path),
//	})
//	if err != nil {
//		return err
//	}
//	if err := client.Open(ctx); err != nil {
//		return err
//	}
//	defer client.Close()
//
//	err = client.Auth.SignInWithPassword(ctx, email, password)
package notefold
