package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/secondbrain/internal/formatter"
	"github.com/desertthunder/secondbrain/internal/models"
	"github.com/desertthunder/secondbrain/internal/services"
	"github.com/desertthunder/secondbrain/internal/shared"
)

func (r *Runner) checklist() (*services.ChecklistClient, error) {
	api, err := r.authedAPI()
	if err != nil {
		return nil, err
	}
	return services.NewChecklistClient(api), nil
}

// TasksList prints today's tasks.
func (r *Runner) TasksList(ctx context.Context, cmd *cli.Command) error {
	client, err := r.checklist()
	if err != nil {
		return err
	}
	tasks, err := client.ListTasks(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(tasks, true)
	}

	done := 0
	for _, t := range tasks {
		if t.IsCompleted {
			done++
		}
	}
	r.writePlainHeader(fmt.Sprintf("Daily Checklist (%d/%d done)", done, len(tasks)))
	if len(tasks) == 0 {
		return r.writePlain("No tasks yet. Add one with 'brain tasks add'.\n")
	}
	for _, t := range tasks {
		mark := " "
		if t.IsCompleted {
			mark = "x"
		}
		r.writePlain("[%s] %s  %-30s %-12s %s\n", mark, t.DueTime, t.Task, t.Category, t.ID)
	}
	return nil
}

// TasksAdd creates a task for the signed-in user.
func (r *Runner) TasksAdd(ctx context.Context, cmd *cli.Command) error {
	text := strings.TrimSpace(cmd.StringArg("task"))
	if text == "" {
		return fmt.Errorf("%w: task text", shared.ErrMissingArgument)
	}
	client, err := r.checklist()
	if err != nil {
		return err
	}

	task := models.Task{Task: text, DueTime: cmd.String("due"), Category: cmd.String("category")}
	created, err := client.CreateTask(ctx, task)
	if err != nil {
		return err
	}
	r.logger.Info("task created", "id", created.ID)
	return r.writePlain("✓ Added %q due %s (%s)\n", created.Task, created.DueTime, created.ID)
}

// TasksToggle flips a task's completion.
func (r *Runner) TasksToggle(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: task id", shared.ErrMissingArgument)
	}
	client, err := r.checklist()
	if err != nil {
		return err
	}
	task, err := client.ToggleTask(ctx, id)
	if err != nil {
		return err
	}
	state := "open"
	if task.IsCompleted {
		state = "done"
	}
	return r.writePlain("✓ %s is now %s\n", task.Task, state)
}

// TasksDelete removes a task.
func (r *Runner) TasksDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: task id", shared.ErrMissingArgument)
	}
	client, err := r.checklist()
	if err != nil {
		return err
	}
	if err := client.DeleteTask(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %s\n", id)
}

// TasksExport writes the checklist to disk in the requested format.
func (r *Runner) TasksExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	user, err := r.currentUser(ctx)
	if err != nil {
		return err
	}
	client, err := r.checklist()
	if err != nil {
		return err
	}
	tasks, err := client.ListTasks(ctx)
	if err != nil {
		return err
	}

	checklist := &formatter.Checklist{
		UserID:     user.ID,
		ExportedAt: time.Now(),
		Tasks:      tasks,
	}
	files, err := formatter.Write(checklist, format, cmd.String("output"))
	if err != nil {
		return err
	}
	r.logger.Info("checklist exported", "format", format, "tasks", len(tasks))
	for _, f := range files {
		r.writePlain("✓ Wrote %s\n", f)
	}
	return nil
}
