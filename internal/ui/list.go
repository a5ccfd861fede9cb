package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/secondbrain/internal/models"
)

var _ list.Item = taskItem{}

// taskItem wraps [models.Task] to implement [list.Item].
type taskItem struct {
	task models.Task
}

func (i taskItem) FilterValue() string { return i.task.Task }
func (i taskItem) Title() string {
	mark := "[ ]"
	if i.task.IsCompleted {
		mark = "[x]"
	}
	return fmt.Sprintf("%s %s", mark, i.task.Task)
}
func (i taskItem) Description() string {
	return fmt.Sprintf("%s • %s", i.task.DueTime, i.task.Category)
}

func taskItems(tasks []models.Task) []list.Item {
	items := make([]list.Item, len(tasks))
	for i, t := range tasks {
		items[i] = taskItem{task: t}
	}
	return items
}
