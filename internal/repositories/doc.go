// Package repositories implements SQLite persistence for the Second Brain tables.
//
// Each repository owns one concern and every query is scoped by user where the hosted policies would scope it:
//   - [TaskRepository] : daily checklist rows ordered by due time
//   - [ProfileRepository] : profiles created at registration
//   - [VideoProgressRepository] : watched flags keyed by (user, video)
//   - [EvolutionRepository] : assistant-pushed tasks and single-task statuses, upserted on their composite keys
//   - [LogRepository] : consultations, signup failures and webhook audit rows
//
// [Store] bundles them into a [models.Backend] so the server can run entirely offline.
package repositories
