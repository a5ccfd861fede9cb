// Package ui implements the terminal daily checklist using bubbletea's Elm architecture.
//
// The TUI walks through a small set of views:
//  1. [BootView] : Resolve the session while a progress bar fills
//  2. [TimedOutView] : Offer retry when the session check outlives the loading timeout
//  3. [SignedOutView] : Explain how to sign in when no session exists
//  4. [ChecklistView] : Browse, toggle and delete today's tasks
//  5. [AddView] : Add a task with a due time and category
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern. Progress
// updates flow through a channel from the [boot.Loader], so the loading bar keeps moving while
// the session request is in flight.
//
// Keyboard navigation uses vim-style bindings (j/k, space, a, d, r, esc, q) with contextual help
// displayed via charmbracelet/bubbles/help.
package ui
