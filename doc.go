// Package accounts provides the user-account subsystem for a chat backend:
// registration, the JWT access/refresh token lifecycle, profile management,
// and presence tracking.
//
// Token lifecycle:
//   - TokenService mints a short-lived access token and a longer-lived
//     refresh token for the same subject. Each type is only good for its own
//     job: the request middleware rejects refresh tokens, and Refresh rejects
//     access tokens. Every verification failure collapses into the same
//     ErrTokenInvalid so callers cannot probe which check tripped.
//
// Presence:
//   - Users carry a UserStatus field (online, offline, away, busy) persisted
//     via Bun. Presence is externally driven: clients report it, nothing in
//     this package times it out. PresenceMachine centralizes transitions and
//     stamps LastSeen whenever an account goes offline.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther, the
//     command handlers, and the presence machine to describe registration,
//     login, refresh, and presence events. Sinks run best-effort (errors are
//     logged) so you can forward to a database or queue without blocking
//     authentication.
package accounts
