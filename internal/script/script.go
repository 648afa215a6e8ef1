// Package script parses the narration script produced by the upstream
// generator into slide entries.
//
// Two shapes are accepted. The structured form uses headers:
//
//	[SLIDE 1: THE DROP]
//	Narrator: Stop scrolling, Acme is hiring.
//	[SLIDE 2: TECH STACK | highlight]
//	Go, Postgres and Kubernetes.
//
// Anything without a header is read as one slide per non-empty line.
package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ivlev/placement2video/internal/slide"
)

var (
	headerPattern   = regexp.MustCompile(`(?m)^[ \t]*\[SLIDE[ \t]*(\d+)[ \t]*:[ \t]*([^\]|\n]*?)[ \t]*(?:\|[ \t]*([A-Za-z]+)[ \t]*)?\][ \t]*$`)
	narratorPattern = regexp.MustCompile(`(?i)\bnarrator\s*:\s*`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// ErrEmpty is returned when the script yields no usable slide.
var ErrEmpty = errors.New("script contains no slides")

// Parse reads r and returns the slide entries in script order.
func Parse(r io.Reader) ([]slide.Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return ParseString(string(data))
}

// ParseString is Parse over an in-memory script.
func ParseString(text string) ([]slide.Entry, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var (
		entries []slide.Entry
		err     error
	)
	if headerPattern.MatchString(text) {
		entries, err = parseBlocks(text)
	} else {
		entries, err = parseLines(text)
	}
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmpty
	}
	return entries, nil
}

func parseBlocks(text string) ([]slide.Entry, error) {
	matches := headerPattern.FindAllStringSubmatchIndex(text, -1)
	entries := make([]slide.Entry, 0, len(matches))
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		title := strings.TrimSpace(text[m[4]:m[5]])
		body := cleanBody(text[m[1]:end])
		if title == "" || body == "" {
			continue
		}

		var kind slide.Kind
		if m[6] >= 0 {
			k, err := slide.ParseKind(text[m[6]:m[7]])
			if err != nil {
				return nil, fmt.Errorf("slide header %q: %w", strings.TrimSpace(text[m[0]:m[1]]), err)
			}
			kind = k
		}
		entries = append(entries, slide.Entry{Title: title, Text: body, Kind: kind})
	}
	return entries, nil
}

func parseLines(text string) ([]slide.Entry, error) {
	var entries []slide.Entry
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := cleanBody(scanner.Text())
		if line == "" {
			continue
		}
		entries = append(entries, slide.Entry{Text: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan script: %w", err)
	}
	return entries, nil
}

func cleanBody(s string) string {
	s = narratorPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}
