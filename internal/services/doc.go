// Package services contains the clients for the hosted services behind Second Brain.
//
// # Auth
//
// [Authenticator] is the hosted auth surface. [SupabaseAuth] implements it over the GoTrue
// endpoints. Error bodies are parsed into [AuthError], which unwraps onto the shared sentinels
// so callers can match with [errors.Is]:
//   - [shared.ErrInvalidCredentials] : wrong email or password
//   - [shared.ErrAccountExists] : sign up with a registered email
//   - [shared.ErrSessionNotFound] : the session was already revoked
//   - [shared.ErrServiceUnavailable] : 5xx from the auth service
//
// [NewSessionClient] wraps a session in an [oauth2.TokenSource] so table requests made as a
// signed-in user refresh the access token on expiry.
//
// # Tables
//
// [SupabaseTables] implements [models.Backend] over PostgREST. Every query filters by user_id,
// and upserts use on_conflict with merge-duplicates.
//
// # Payments and Webhooks
//
// [StripeClient] creates checkout sessions and payment intents for the single lifetime product.
// [WebhookClient] posts form payloads to automation endpoints behind a token bucket limiter.
//
// # API
//
// [APIService] makes raw requests against a running server for the CLI.
package services
