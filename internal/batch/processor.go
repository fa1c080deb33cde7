package batch

import (
	"fmt"
	"os"
	"strings"
)

// StoryEntry is one story to generate
type StoryEntry struct {
	Name   string // Optional label, recorded as the job source
	Prompt string
}

// ReadBatchFile reads story prompts from a file, one per line.
// Supports formats:
// - Prompt only: "A serene landscape with mountains and a river"
// - Named prompt: "sunrise = A sunrise over a quiet harbour"
// The name ends at the first " = " (spaces required), so "E=mc2" stays a
// prompt. A line starting with "=" is an unnamed prompt taken verbatim,
// e.g. "= E = mc2 as a mural". Lines starting with '#' are comments. Lines
// with an empty prompt are ignored.
func ReadBatchFile(filename string) ([]StoryEntry, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var entries []StoryEntry
	add := func(name, prompt string) {
		name = strings.TrimSpace(name)
		prompt = strings.TrimSpace(prompt)
		if prompt == "" {
			return
		}
		if name == "" {
			name = prompt
		}
		entries = append(entries, StoryEntry{Name: name, Prompt: prompt})
	}

	for _, line := range splitLines(string(content)) {
		line = trimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if prompt, ok := strings.CutPrefix(line, "="); ok {
			add("", prompt)
			continue
		}
		if strings.HasSuffix(line, " =") {
			// name without a prompt
			continue
		}
		if name, prompt, ok := strings.Cut(line, " = "); ok {
			add(name, prompt)
			continue
		}
		add(line, line)
	}

	return entries, nil
}

// splitLines splits a string by newlines
func splitLines(s string) []string {
	var lines []string
	current := ""
	for _, r := range s {
		if r == '\n' {
			lines = append(lines, current)
			current = ""
		} else if r != '\r' {
			current += string(r)
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// trimSpace trims whitespace from string
func trimSpace(s string) string {
	start := 0
	end := len(s)

	for start < end && isSpace(rune(s[start])) {
		start++
	}
	for end > start && isSpace(rune(s[end-1])) {
		end--
	}

	return s[start:end]
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
