package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/secondbrain/internal/auth"
	"github.com/desertthunder/secondbrain/internal/boot"
	"github.com/desertthunder/secondbrain/internal/models"
	"github.com/desertthunder/secondbrain/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	BootView ViewState = iota
	TimedOutView
	SignedOutView
	ChecklistView
	AddView
)

const barWidth = 40

// Checklist is the task source behind the TUI. Every call is scoped to the signed-in user.
type Checklist interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	CreateTask(ctx context.Context, t models.Task) (*models.Task, error)
	ToggleTask(ctx context.Context, id string) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	loader    *boot.Loader
	checklist Checklist

	progressChan chan boot.ProgressUpdate
	doneChan     chan bootDoneMsg
	progress     boot.ProgressUpdate
	state        auth.State

	width  int
	height int
	tasks  list.Model
	inputs []textinput.Model
	focus  int
	status string
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, loader *boot.Loader, checklist Checklist) *Model {
	tasks := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	tasks.Title = "Daily Checklist"

	return &Model{
		ctx:       ctx,
		view:      BootView,
		loader:    loader,
		checklist: checklist,
		tasks:     tasks,
		inputs:    newInputs(),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

func newInputs() []textinput.Model {
	placeholders := []string{"Review inbox", "09:00", "morning"}
	inputs := make([]textinput.Model, len(placeholders))
	for i, p := range placeholders {
		ti := textinput.New()
		ti.Placeholder = p
		ti.CharLimit = 120
		inputs[i] = ti
	}
	inputs[0].Focus()
	return inputs
}

// Current reports the active view.
func (m *Model) Current() ViewState {
	return m.view
}

// Init starts resolving the session.
func (m *Model) Init() tea.Cmd {
	return m.startBoot()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tasks.SetSize(max(msg.Width-4, 0), max(msg.Height-8, 0))
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case BootView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case TimedOutView, SignedOutView:
			return m.handleRetryKeys(msg)
		case ChecklistView:
			return m.handleChecklistKeys(msg)
		case AddView:
			return m.handleAddKeys(msg)
		}

	case bootProgressMsg:
		m.progress = boot.ProgressUpdate(msg)
		return m, waitForBoot(m.progressChan, m.doneChan)

	case bootDoneMsg:
		m.progressChan, m.doneChan = nil, nil
		m.state = msg.state
		m.err = msg.err
		switch {
		case msg.err != nil:
			m.view = TimedOutView
			return m, nil
		case !msg.state.Authenticated:
			m.view = SignedOutView
			return m, nil
		default:
			m.view = ChecklistView
			return m, m.fetchTasks()
		}

	case tasksFetchedMsg:
		if msg.err != nil {
			return m, m.fail(msg.err)
		}
		m.err = nil
		cmd := m.tasks.SetItems(taskItems(msg.tasks))
		m.updateTitle()
		return m, cmd

	case taskChangedMsg:
		if msg.err != nil {
			return m, m.fail(msg.err)
		}
		m.err = nil
		switch {
		case msg.deleted != "":
			if i := m.indexOf(msg.deleted); i >= 0 {
				m.tasks.RemoveItem(i)
			}
			m.status = "Task deleted"
		case msg.task != nil:
			if i := m.indexOf(msg.task.ID); i >= 0 {
				m.tasks.SetItem(i, taskItem{task: *msg.task})
				m.status = ""
			} else {
				m.status = "Task added"
				m.updateTitle()
				return m, m.fetchTasks()
			}
		}
		m.updateTitle()
		return m, nil
	}

	if m.view == ChecklistView {
		var cmd tea.Cmd
		m.tasks, cmd = m.tasks.Update(msg)
		return m, cmd
	}
	return m, nil
}

// fail records err; a lost session sends the user back to the signed-out view.
func (m *Model) fail(err error) tea.Cmd {
	m.err = err
	if errors.Is(err, shared.ErrNotAuthenticated) {
		m.state = auth.State{}
		m.view = SignedOutView
	}
	return nil
}

func (m *Model) indexOf(id string) int {
	for i, item := range m.tasks.Items() {
		if ti, ok := item.(taskItem); ok && ti.task.ID == id {
			return i
		}
	}
	return -1
}

func (m *Model) updateTitle() {
	done, total := 0, 0
	for _, item := range m.tasks.Items() {
		if ti, ok := item.(taskItem); ok {
			total++
			if ti.task.IsCompleted {
				done++
			}
		}
	}
	m.tasks.Title = fmt.Sprintf("Daily Checklist (%d/%d done)", done, total)
}

func (m *Model) handleRetryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.retry):
		m.err = nil
		return m, m.startBoot()
	}
	return m, nil
}

func (m *Model) handleChecklistKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.tasks.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.tasks, cmd = m.tasks.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		if ti, ok := m.tasks.SelectedItem().(taskItem); ok {
			return m, m.toggleTask(ti.task.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if ti, ok := m.tasks.SelectedItem().(taskItem); ok {
			return m, m.deleteTask(ti.task.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		m.status = "Refreshing..."
		return m, m.fetchTasks()
	case key.Matches(msg, m.keys.add):
		m.view = AddView
		m.status = ""
		m.inputs = newInputs()
		m.focus = 0
		return m, textinput.Blink
	}

	var cmd tea.Cmd
	m.tasks, cmd = m.tasks.Update(msg)
	return m, cmd
}

func (m *Model) handleAddKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ChecklistView
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.next):
		step := 1
		if msg.String() == "shift+tab" {
			step = len(m.inputs) - 1
		}
		m.inputs[m.focus].Blur()
		m.focus = (m.focus + step) % len(m.inputs)
		return m, m.inputs[m.focus].Focus()
	case key.Matches(msg, m.keys.submit):
		task := m.draft()
		if err := task.Validate(); err != nil {
			m.status = "Task, due time and category are required"
			return m, nil
		}
		m.view = ChecklistView
		m.status = "Saving..."
		return m, m.createTask(task)
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// draft builds a task from the add form, owned by the signed-in user.
func (m *Model) draft() models.Task {
	task := models.Task{
		Task:     strings.TrimSpace(m.inputs[0].Value()),
		DueTime:  strings.TrimSpace(m.inputs[1].Value()),
		Category: strings.TrimSpace(m.inputs[2].Value()),
	}
	if m.state.User != nil {
		task.UserID = m.state.User.ID
	}
	return task
}

// startBoot runs the loader in the background and streams its updates.
func (m *Model) startBoot() tea.Cmd {
	m.view = BootView
	m.progress = boot.ProgressUpdate{}
	m.progressChan = make(chan boot.ProgressUpdate, 32)
	m.doneChan = make(chan bootDoneMsg, 1)

	ctx, loader, progress, done := m.ctx, m.loader, m.progressChan, m.doneChan
	go func() {
		state, err := loader.Run(ctx, progress)
		close(progress)
		done <- bootDoneMsg{state: state, err: err}
	}()

	return waitForBoot(progress, done)
}

func waitForBoot(progress <-chan boot.ProgressUpdate, done <-chan bootDoneMsg) tea.Cmd {
	return func() tea.Msg {
		if update, ok := <-progress; ok {
			return bootProgressMsg(update)
		}
		return <-done
	}
}

func (m *Model) fetchTasks() tea.Cmd {
	ctx, checklist := m.ctx, m.checklist
	return func() tea.Msg {
		tasks, err := checklist.ListTasks(ctx)
		return tasksFetchedMsg{tasks: tasks, err: err}
	}
}

func (m *Model) toggleTask(id string) tea.Cmd {
	ctx, checklist := m.ctx, m.checklist
	return func() tea.Msg {
		task, err := checklist.ToggleTask(ctx, id)
		return taskChangedMsg{task: task, err: err}
	}
}

func (m *Model) deleteTask(id string) tea.Cmd {
	ctx, checklist := m.ctx, m.checklist
	return func() tea.Msg {
		if err := checklist.DeleteTask(ctx, id); err != nil {
			return taskChangedMsg{err: err}
		}
		return taskChangedMsg{deleted: id}
	}
}

func (m *Model) createTask(t models.Task) tea.Cmd {
	ctx, checklist := m.ctx, m.checklist
	return func() tea.Msg {
		task, err := checklist.CreateTask(ctx, t)
		return taskChangedMsg{task: task, err: err}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case BootView:
		return m.renderBoot()
	case TimedOutView:
		return m.renderTimedOut()
	case SignedOutView:
		return m.renderSignedOut()
	case ChecklistView:
		return m.renderChecklist()
	case AddView:
		return m.renderAdd()
	default:
		return ""
	}
}

func (m *Model) renderBoot() string {
	title := styles.title.Render("Second Brain")

	bar := styles.Progress(m.progress.Progress, barWidth)

	msg := m.progress.Message
	if msg == "" {
		msg = "Checking session..."
	}
	if m.progress.Phase == boot.SlowConnection {
		msg = styles.warn.Render(msg)
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, bar, msg, m.help.ShortHelpView([]key.Binding{m.keys.quit}))
}

func (m *Model) renderTimedOut() string {
	opts := boot.TimeoutOptions{
		Title:   "Connection Taking Longer Than Expected",
		Message: "The connection is taking longer than usual. Please try one of the options below.",
	}
	if o, ok := m.progress.Data.(boot.TimeoutOptions); ok {
		opts = o
	}

	title := styles.warn.Render(opts.Title)
	body := opts.Message
	if m.err != nil && !errors.Is(m.err, shared.ErrTimeout) {
		body = styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}
	hint := styles.help.Render("Sign in with `brain auth login`, or browse the site as a guest.")
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.retry, m.keys.quit})

	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s", title, body, hint, helpView)
}

func (m *Model) renderSignedOut() string {
	title := styles.warn.Render("Not signed in")
	body := "Run `brain auth login` and press r to retry."
	if m.err != nil {
		body = fmt.Sprintf("%s\n%s", styles.err.Render(m.err.Error()), body)
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.retry, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, helpView)
}

func (m *Model) renderChecklist() string {
	status := styles.Status(m.status, m.err)
	helpKeys := []key.Binding{m.keys.toggle, m.keys.add, m.keys.remove, m.keys.refresh, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s", m.tasks.View(), status, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderAdd() string {
	labels := []string{"Task", "Due time", "Category"}

	var b strings.Builder
	b.WriteString(styles.title.Render("Add Task"))
	b.WriteString("\n")
	for i, in := range m.inputs {
		fmt.Fprintf(&b, "%s\n%s\n\n", labels[i], in.View())
	}
	if m.status != "" {
		b.WriteString(styles.err.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.submit, m.keys.back}))
	return b.String()
}
