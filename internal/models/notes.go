package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Note tags used by the reconciliation engine.
const (
	NoteTagGeofence = "geofence"
	NoteTagBreak    = "break"
	NoteTagAutoMark = "auto-mark"
	NoteTagEdit     = "edit"
)

// NoteEntry is a single tagged line in a record's running note.
type NoteEntry struct {
	Tag  string `json:"tag,omitempty"`
	Text string `json:"text"`
}

// NoteLog is an ordered list of tagged note entries. It serializes to the
// legacy newline-joined text form only at the database boundary, so edit
// operations can compose entries without string parsing.
type NoteLog []NoteEntry

// Append returns a new log with the entry added. Empty text is ignored.
func (n NoteLog) Append(tag, text string) NoteLog {
	text = strings.TrimSpace(text)
	if text == "" {
		return n
	}
	return append(n, NoteEntry{Tag: tag, Text: text})
}

// String renders the log as human-readable text, one entry per line.
func (n NoteLog) String() string {
	if len(n) == 0 {
		return ""
	}
	lines := make([]string, 0, len(n))
	for _, entry := range n {
		if entry.Tag == "" {
			lines = append(lines, entry.Text)
			continue
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", entry.Tag, entry.Text))
	}
	return strings.Join(lines, "\n")
}

// ParseNoteLog rebuilds a log from its serialized text form.
func ParseNoteLog(raw string) NoteLog {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var log NoteLog
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") {
			if end := strings.Index(line, "] "); end > 0 {
				log = append(log, NoteEntry{Tag: line[1:end], Text: line[end+2:]})
				continue
			}
		}
		log = append(log, NoteEntry{Text: line})
	}
	return log
}

// Value implements driver.Valuer.
func (n NoteLog) Value() (driver.Value, error) {
	return n.String(), nil
}

// Scan implements sql.Scanner.
func (n *NoteLog) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*n = nil
	case string:
		*n = ParseNoteLog(v)
	case []byte:
		*n = ParseNoteLog(string(v))
	default:
		return fmt.Errorf("unsupported notes column type %T", src)
	}
	return nil
}
