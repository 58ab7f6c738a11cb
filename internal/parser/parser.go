package parser

import (
	"io"
	"os"
	"strings"
)

const (
	entryPrefix    = "+"
	fieldSeparator = "::"
)

// Entry is one question/answer pair read from quick-entry text.
type Entry struct {
	Question string
	Answer   string
}

// ParseFile reads a file from the given path and extracts all entries.
func ParseFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads quick-entry text from an io.Reader.
func Parse(r io.Reader) ([]Entry, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseString(string(b)), nil
}

// ParseString splits text of the form "+question::answer+question::answer".
// Each entry is split on "::" and both sides are trimmed. Segments that do not
// split into exactly a question and an answer are skipped. Blank fields are
// kept for the caller to reject.
func ParseString(text string) []Entry {
	var entries []Entry
	for _, segment := range strings.Split(text, entryPrefix) {
		parts := strings.Split(segment, fieldSeparator)
		if len(parts) != 2 {
			continue
		}
		entries = append(entries, Entry{
			Question: strings.TrimSpace(parts[0]),
			Answer:   strings.TrimSpace(parts[1]),
		})
	}
	return entries
}

// Format writes entries back as quick-entry text, one entry per line.
func Format(entries []Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(entryPrefix)
		sb.WriteString(e.Question)
		sb.WriteString(fieldSeparator)
		sb.WriteString(e.Answer)
		sb.WriteString("\n")
	}
	return sb.String()
}
