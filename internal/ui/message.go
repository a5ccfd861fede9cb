package ui

import (
	"github.com/desertthunder/secondbrain/internal/auth"
	"github.com/desertthunder/secondbrain/internal/boot"
	"github.com/desertthunder/secondbrain/internal/models"
)

// bootProgressMsg carries a loader update.
type bootProgressMsg boot.ProgressUpdate

// bootDoneMsg is sent once the loader returns.
type bootDoneMsg struct {
	state auth.State
	err   error
}

type tasksFetchedMsg struct {
	tasks []models.Task
	err   error
}

// taskChangedMsg reports a create or toggle; deleted is set for removals.
type taskChangedMsg struct {
	task    *models.Task
	deleted string
	err     error
}
