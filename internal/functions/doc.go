// Package functions implements the HTTP endpoints of the Second Brain server.
//
// # Form and webhook functions
//
// Public POST endpoints that proxy the marketing site's forms and the voice assistant's callbacks into the
// backend tables and automation webhooks: add-task, receive-checklist, create-checkout-session,
// create-payment-intent, update-daily-evolution-tasks, update-evolution-task, forward-user, consultations and
// troubleshooting.
//
// # Auth API
//
// Register, login and logout run through [auth.Manager], which guards the hosted auth service with a circuit
// breaker. Sessions are kept server-side in a [sessions.Store] and referenced by the sb-auth-token cookie.
// The boot endpoint streams loading-screen progress as server-sent events.
//
// # Checklist API
//
// Session-protected task and video-progress endpoints. [Handlers.RequireSession] resolves the cookie to a
// validated user, refreshing the access token when it has expired.
package functions
