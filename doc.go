// Package atelier is the session and authorization core of the Atelier
// marketplace client. It owns the bearer token for the current user, keeps
// the resolved identity snapshot and its derived role in one place, and
// gates route groups across three trust tiers.
//
// Session lifecycle:
//   - Manager is the single writer of session state. It moves through
//     initializing -> resolving -> ready and re-enters resolving on login,
//     signup, and refresh. Bootstrap restores a persisted token on startup
//     and self-heals when the backend rejects it.
//   - CredentialStore persists the token across process runs. The bundled
//     localstore package keeps it (and feature toggles) in a local sqlite
//     database; MemoryCredentialStore covers tests and ephemeral runs.
//
// Gateway:
//   - Client normalizes every backend interaction. Failures of any kind
//     (transport, 4xx, 5xx, undecodable bodies) surface as *APIError, so
//     callers never handle raw transport errors.
//
// Guards:
//   - Guard answers the admission question per trust tier (public-only,
//     authenticated user, admin) and never redirects while the session is
//     still resolving.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter describing bootstrap,
//     login, signup, logout, and refresh outcomes. Sinks run best-effort
//     (errors are logged) so telemetry never blocks a session operation.
package atelier
