// package formatter exports a user's daily checklist to CSV, Markdown and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/secondbrain/internal/models"
	"github.com/desertthunder/secondbrain/internal/shared"
)

// Format names an export format accepted by the CLI.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
)

// ParseFormat accepts csv, md/markdown and txt/text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, s)
	}
}

// Checklist is a snapshot of a user's tasks taken at a point in time.
type Checklist struct {
	UserID     string
	Title      string
	ExportedAt time.Time
	Tasks      []models.Task
}

// Completed counts finished tasks.
func (c *Checklist) Completed() int {
	n := 0
	for _, t := range c.Tasks {
		if t.IsCompleted {
			n++
		}
	}
	return n
}

// Categories returns category names in first-seen order.
func (c *Checklist) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range c.Tasks {
		if !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	return out
}

func (c *Checklist) title() string {
	if c.Title != "" {
		return c.Title
	}
	return "Daily Checklist"
}

func (c *Checklist) date() string {
	if c.ExportedAt.IsZero() {
		return shared.Today(time.Now())
	}
	return shared.Today(c.ExportedAt)
}

// ExportToCSV converts a Checklist to CSV format with columns: ID, Task, Due Time, Category, Completed
func ExportToCSV(c *Checklist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Task", "Due Time", "Category", "Completed"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, task := range c.Tasks {
		record := []string{
			task.ID,
			task.Task,
			task.DueTime,
			task.Category,
			strconv.FormatBool(task.IsCompleted),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the checklist as GitHub task lists, one section per category.
func ExportToMarkdown(c *Checklist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", c.title())
	fmt.Fprintf(&buf, "**Date**: %s\n", c.date())
	fmt.Fprintf(&buf, "**Completed**: %d/%d\n\n", c.Completed(), len(c.Tasks))

	for _, category := range c.Categories() {
		name := category
		if name == "" {
			name = "Uncategorized"
		}
		fmt.Fprintf(&buf, "## %s\n\n", name)
		for _, task := range c.Tasks {
			if task.Category != category {
				continue
			}
			fmt.Fprintf(&buf, "- [%s] %s %s\n", check(task.IsCompleted, "x"), task.DueTime, task.Task)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Checklist to plain text format
func ExportToText(c *Checklist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Checklist: %s\n", c.title())
	fmt.Fprintf(&buf, "Date: %s\n", c.date())
	fmt.Fprintf(&buf, "Completed: %d/%d\n\n", c.Completed(), len(c.Tasks))

	for i, task := range c.Tasks {
		fmt.Fprintf(&buf, "%d. [%s] %s %s (%s)\n", i+1, check(task.IsCompleted, "x"), task.DueTime, task.Task, task.Category)
	}

	return buf.Bytes(), nil
}

func check(done bool, mark string) string {
	if done {
		return mark
	}
	return " "
}

type metadata struct {
	UserID     string   `json:"user_id"`
	Title      string   `json:"title"`
	Date       string   `json:"date"`
	Total      int      `json:"total"`
	Completed  int      `json:"completed"`
	Categories []string `json:"categories"`
}

// ToMetadataJSON generates a JSON summary of the checklist (without tasks)
func ToMetadataJSON(c *Checklist) ([]byte, error) {
	categories := c.Categories()
	if categories == nil {
		categories = []string{}
	}
	m := metadata{
		UserID:     c.UserID,
		Title:      c.title(),
		Date:       c.date(),
		Total:      len(c.Tasks),
		Completed:  c.Completed(),
		Categories: categories,
	}
	return json.MarshalIndent(m, "", "  ")
}

func (c *Checklist) base() string {
	return "checklist_" + c.date()
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TasksFile    string
	MetadataFile string
}

// WriteCSVExport exports a checklist to CSV format with accompanying metadata JSON file.
//
// Defaults to checklist_{date} as the base filename & creates {base}_tasks.csv and {base}_metadata.json
func WriteCSVExport(c *Checklist, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = c.base()
	}

	csvData, err := ExportToCSV(c)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tasksFile := baseFilepath + "_tasks.csv"
	if err := os.WriteFile(tasksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(c)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TasksFile:    tasksFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteMarkdownExport writes {dir}/README.md, creating dir (default checklist_{date}) as needed.
func WriteMarkdownExport(c *Checklist, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = c.base()
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(c)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}
	return mdFile, nil
}

// WriteTextExport exports a checklist to plain text format.
//
// Defaults to checklist_{date}.txt as the filename.
func WriteTextExport(c *Checklist, path string) (string, error) {
	if path == "" {
		path = c.base() + ".txt"
	}

	textData, err := ExportToText(c)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// Write exports c in format f to path and returns the files it created.
func Write(c *Checklist, f Format, path string) ([]string, error) {
	switch f {
	case FormatCSV:
		res, err := WriteCSVExport(c, path)
		if err != nil {
			return nil, err
		}
		return []string{res.TasksFile, res.MetadataFile}, nil
	case FormatMarkdown:
		file, err := WriteMarkdownExport(c, path)
		if err != nil {
			return nil, err
		}
		return []string{file}, nil
	case FormatText:
		file, err := WriteTextExport(c, path)
		if err != nil {
			return nil, err
		}
		return []string{file}, nil
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, f)
	}
}
