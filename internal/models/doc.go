// Package models defines the rows stored by the Second Brain backend and the store interfaces that persist them.
//
// Entities mirror the hosted database tables:
//   - [Task] : daily_tasks, the per-user checklist
//   - [Profile] : user_profiles, created during registration
//   - [VideoProgress] : video_progress, watched flags for resource videos
//   - [Consultation] : consultations, contact form submissions
//   - [SignupLog] : signup_logs, failed registration audit rows
//   - [EvolutionTask] : user_evolution_tasks, pushed by the chat assistant
//   - [EvolutionStatus] : evolution_tasks, single-task status updates
//   - [WebhookLog] : webhook_logs, audit rows for inbound function calls
//
// [Backend] is implemented by the local SQLite repositories and by the hosted PostgREST client,
// so handlers never know which one they talk to.
package models
