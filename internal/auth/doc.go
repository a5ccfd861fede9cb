// Package auth manages user sessions against the hosted auth service.
//
// Every call that validates or revokes a token goes through a shared
// [resilience.CircuitBreaker]. Only transport failures and 5xx responses count as breaker
// failures; a rejected token is an answer, not an outage.
//
// # Environments
//
// Sandboxed browser environments (online IDEs) get a longer auth timeout and are allowed to
// resume from a cached session. [DetectEnvironment] looks for the known indicators in the user
// agent and host.
//
// # Flows
//
//   - [Manager.Initialize] resolves a request to an authenticated or anonymous [State], never
//     waiting longer than the auth timeout for the session.
//   - [Manager.Login] signs in with a password and validates the returned token.
//   - [Manager.Register] creates the account, its profile, notifies the registration webhook
//     and signs the user in. Failures after validation are written to signup_logs.
//   - [Manager.Logout] revokes the session and succeeds silently while the breaker is open.
package auth
