package task

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var exportColumns = []string{
	"id", "title", "assigned_to", "creation_date", "due_date",
	"completed", "completed_by", "completed_on",
}

// WriteCSV writes a header row followed by rows. Each row must have one cell
// per column.
func WriteCSV(w io.Writer, columns []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func taskRows(tasks []Task) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10),
			t.Title,
			deref(t.AssignedTo),
			t.CreationDate.UTC().Format(time.RFC3339),
			t.DueDate.UTC().Format(time.RFC3339),
			strconv.FormatBool(t.Completed),
			deref(t.CompletedBy),
			formatTime(t.CompletedOn),
		})
	}
	return rows
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
