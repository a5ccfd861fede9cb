package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/secondbrain/internal/models"
	"github.com/desertthunder/secondbrain/internal/shared"
	tu "github.com/desertthunder/secondbrain/internal/testing"
)

func fixture() *Checklist {
	return &Checklist{
		UserID:     "user-1",
		ExportedAt: time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC),
		Tasks: []models.Task{
			{ID: "t1", Task: "Plan the day", DueTime: "08:00", Category: "morning", IsCompleted: true},
			{ID: "t2", Task: "Inbox zero", DueTime: "13:00", Category: "afternoon"},
			{ID: "t3", Task: "Stretch", DueTime: "08:30", Category: "morning"},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(fixture())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "ID,Task,Due Time,Category,Completed") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "t1,Plan the day,08:00,morning,true") {
			t.Errorf("CSV missing completed task, got: %s", output)
		}
		if !strings.Contains(output, "t2,Inbox zero,13:00,afternoon,false") {
			t.Errorf("CSV missing open task, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(fixture())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Daily Checklist",
			"**Date**: 2024-05-06",
			"**Completed**: 1/3",
			"## morning\n\n- [x] 08:00 Plan the day\n- [ ] 08:30 Stretch\n",
			"## afternoon\n\n- [ ] 13:00 Inbox zero\n",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
		if strings.Index(output, "## morning") > strings.Index(output, "## afternoon") {
			t.Error("categories should keep first-seen order")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		c := fixture()
		c.Title = "Tuesday"
		data, err := ExportToText(c)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Checklist: Tuesday") {
			t.Errorf("Text missing title")
		}
		if !strings.Contains(output, "Completed: 1/3") {
			t.Errorf("Text missing completion count")
		}
		if !strings.Contains(output, "1. [x] 08:00 Plan the day (morning)") {
			t.Errorf("Text missing first task, got:\n%s", output)
		}
		if !strings.Contains(output, "2. [ ] 13:00 Inbox zero (afternoon)") {
			t.Errorf("Text missing second task")
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(fixture())
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		var got metadata
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Total != 3 || got.Completed != 1 || got.UserID != "user-1" {
			t.Errorf("unexpected metadata %+v", got)
		}
		if len(got.Categories) != 2 || got.Categories[0] != "morning" {
			t.Errorf("unexpected categories %v", got.Categories)
		}
	})

	t.Run("Empty Checklist", func(t *testing.T) {
		data, err := ToMetadataJSON(&Checklist{ExportedAt: time.Unix(0, 0)})
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}
		if !strings.Contains(string(data), `"categories": []`) {
			t.Errorf("expected empty categories array, got %s", data)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tc := []struct {
		in   string
		want Format
	}{
		{"csv", FormatCSV},
		{"MD", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{"text", FormatText},
		{" txt ", FormatText},
	}
	for _, tt := range tc {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}

	if _, err := ParseFormat("pdf"); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			t.Chdir(t.TempDir())

			result, err := WriteCSVExport(fixture(), "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.TasksFile != "checklist_2024-05-06_tasks.csv" {
				t.Errorf("unexpected tasks file %q", result.TasksFile)
			}
			if result.MetadataFile != "checklist_2024-05-06_metadata.json" {
				t.Errorf("unexpected metadata file %q", result.MetadataFile)
			}

			tu.AssertFileExists(t, result.TasksFile)
			tu.AssertFileExists(t, result.MetadataFile)

			if content := tu.MustReadFile(t, result.TasksFile); !strings.Contains(content, "Plan the day") {
				t.Errorf("CSV missing task data")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "custom")
			result, err := WriteCSVExport(fixture(), base)
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}
			if result.TasksFile != base+"_tasks.csv" || result.MetadataFile != base+"_metadata.json" {
				t.Errorf("unexpected result %+v", result)
			}
			tu.AssertFileExists(t, result.TasksFile)
		})

		t.Run("Unwritable", func(t *testing.T) {
			_, err := WriteCSVExport(fixture(), filepath.Join(t.TempDir(), "missing", "dir", "x"))
			if err == nil {
				t.Error("expected error writing into a missing directory")
			}
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "export")
		file, err := WriteMarkdownExport(fixture(), dir)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if file != filepath.Join(dir, "README.md") {
			t.Errorf("unexpected file %q", file)
		}
		if content := tu.MustReadFile(t, file); !strings.Contains(content, "- [x] 08:00 Plan the day") {
			t.Errorf("README missing tasks:\n%s", content)
		}
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		t.Chdir(t.TempDir())

		file, err := WriteTextExport(fixture(), "")
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if file != "checklist_2024-05-06.txt" {
			t.Errorf("unexpected file %q", file)
		}
		tu.AssertFileExists(t, file)
	})

	t.Run("Write", func(t *testing.T) {
		dir := t.TempDir()
		files, err := Write(fixture(), FormatCSV, filepath.Join(dir, "out"))
		if err != nil || len(files) != 2 {
			t.Fatalf("Write csv: %v %v", files, err)
		}
		files, err = Write(fixture(), FormatText, filepath.Join(dir, "out.txt"))
		if err != nil || len(files) != 1 {
			t.Fatalf("Write txt: %v %v", files, err)
		}
		if _, err := Write(fixture(), Format("pdf"), dir); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}
