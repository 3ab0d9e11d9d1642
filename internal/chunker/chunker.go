package chunker

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const DefaultMaxChunkChars = 1000

const maxHeadingRunes = 80

var (
	ErrEmptyContent = errors.New("content is empty")

	numberedHeading = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*[.)]?\s+\p{L}`)
	markdownHeading = regexp.MustCompile(`^#{1,6}\s+`)
)

type Section struct {
	Title   string
	Content string
}

type Chunker struct {
	maxChars int
}

func New(maxChars int) *Chunker {
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}
	return &Chunker{maxChars: maxChars}
}

func (c *Chunker) MaxChars() int {
	return c.maxChars
}

// Chunk splits text along headings when any are present, otherwise by size at
// sentence boundaries. No returned Section has more than MaxChars runes.
func (c *Chunker) Chunk(text string) ([]Section, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyContent
	}

	var sections []Section
	for _, seg := range segments(text) {
		for _, piece := range splitBySize(seg.body, c.maxChars) {
			sections = append(sections, Section{Title: seg.title, Content: piece})
		}
	}
	if len(sections) == 0 {
		return nil, ErrEmptyContent
	}
	return sections, nil
}

type segment struct {
	title string
	body  string
}

// segments groups lines under the heading that precedes them. The heading line stays
// in the body so it remains searchable.
func segments(text string) []segment {
	lines := strings.Split(text, "\n")

	var out []segment
	current := segment{}
	var buf []string
	flush := func() {
		body := strings.TrimSpace(strings.Join(buf, "\n"))
		if body != "" {
			current.body = body
			out = append(out, current)
		}
		buf = buf[:0]
	}

	found := false
	for _, line := range lines {
		if title, ok := headingTitle(line); ok {
			found = true
			flush()
			current = segment{title: title}
		}
		buf = append(buf, line)
	}
	flush()

	if !found {
		return []segment{{body: strings.TrimSpace(text)}}
	}
	return out
}

func headingTitle(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > maxHeadingRunes {
		return "", false
	}
	if markdownHeading.MatchString(trimmed) {
		return strings.TrimSpace(strings.TrimLeft(trimmed, "#")), true
	}
	// "1. Load the round." is a list item, not a header.
	if numberedHeading.MatchString(trimmed) && !endsSentence(trimmed) {
		return trimmed, true
	}
	if isAllCaps(trimmed) {
		return trimmed, true
	}
	return "", false
}

func isAllCaps(s string) bool {
	letters := 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
		letters++
	}
	return letters >= 3
}

func endsSentence(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r == '.' || r == '!' || r == '?'
}

// splitBySize prefers a sentence end, then whitespace, then a hard cut.
func splitBySize(text string, maxChars int) []string {
	runes := []rune(strings.TrimSpace(text))
	var pieces []string
	for len(runes) > maxChars {
		cut := cutPoint(runes[:maxChars])
		piece := strings.TrimSpace(string(runes[:cut]))
		if piece != "" {
			pieces = append(pieces, piece)
		}
		runes = []rune(strings.TrimLeftFunc(string(runes[cut:]), unicode.IsSpace))
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		pieces = append(pieces, rest)
	}
	return pieces
}

func cutPoint(window []rune) int {
	for i := len(window) - 1; i > 0; i-- {
		switch window[i-1] {
		case '.', '!', '?':
			if unicode.IsSpace(window[i]) {
				return i
			}
		}
	}
	if last := len(window) - 1; last > 0 {
		switch window[last] {
		case '.', '!', '?':
			return len(window)
		}
	}
	for i := len(window) - 1; i > 0; i-- {
		if unicode.IsSpace(window[i]) {
			return i
		}
	}
	return len(window)
}
