package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when no parseable JSON value can be recovered from a response.
var ErrNoJSON = errors.New("no valid JSON found in response")

// CleanJSONBlock removes markdown code block wrappers from JSON responses.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip a language identifier on the first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	return text
}

var (
	wrapperPattern = regexp.MustCompile(`(?s)START_JSON(.*?)END_JSON`)
	fencePattern   = regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n\\s*```")
	greedyObject   = regexp.MustCompile(`(?s)(\{.*\})`)
	greedyArray    = regexp.MustCompile(`(?s)(\[.*\])`)
)

// ExtractFirstJSON returns the first balanced JSON object or array in text,
// or "" when none closes. Brackets inside string literals are ignored.
func ExtractFirstJSON(text string) string {
	text = strings.TrimSpace(text)

	objStart := strings.IndexByte(text, '{')
	arrStart := strings.IndexByte(text, '[')

	var open, close byte
	var start int
	switch {
	case objStart >= 0 && (arrStart < 0 || objStart < arrStart):
		open, close, start = '{', '}', objStart
	case arrStart >= 0:
		open, close, start = '[', ']', arrStart
	default:
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// RepairJSON strips // and /* */ comments and trailing commas outside string literals.
func RepairJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			b.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch {
		case ch == '"':
			inString = true
			b.WriteByte(ch)
		case ch == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				b.WriteByte('\n')
			}
		case ch == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				i = len(s)
			} else {
				i += end + 3
			}
		case ch == ',':
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
			b.WriteByte(ch)
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// ExtractJSON recovers a JSON document from a free-form model response.
// Candidates are tried in order: the START_JSON/END_JSON wrapper contents,
// the first balanced value, the whole text, a ```json fence, then greedy
// object and array spans. Each candidate is retried once after RepairJSON.
func ExtractJSON(response string) ([]byte, error) {
	if strings.TrimSpace(response) == "" {
		return nil, ErrNoJSON
	}
	if m := wrapperPattern.FindStringSubmatch(response); m != nil {
		response = m[1]
	}

	candidates := []string{ExtractFirstJSON(response), strings.TrimSpace(response)}
	if m := fencePattern.FindStringSubmatch(response); m != nil {
		candidates = append(candidates, m[1])
	}
	if m := greedyObject.FindStringSubmatch(response); m != nil {
		candidates = append(candidates, m[1])
	}
	if m := greedyArray.FindStringSubmatch(response); m != nil {
		candidates = append(candidates, m[1])
	}

	for _, c := range candidates {
		if c == "" {
			continue
		}
		if json.Valid([]byte(c)) {
			return []byte(c), nil
		}
		if repaired := RepairJSON(c); json.Valid([]byte(repaired)) {
			return []byte(repaired), nil
		}
	}
	return nil, ErrNoJSON
}

// ParseJSON recovers a JSON document from response and unmarshals it into v.
func ParseJSON(response string, v any) error {
	data, err := ExtractJSON(response)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
