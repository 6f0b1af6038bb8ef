package ai

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	jsonFencePattern = regexp.MustCompile("(?is)```json\\s*(.*?)```")
	anyFencePattern  = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*\\s*(.*?)```")
)

// ErrNoJSON is wrapped by ErrInvalidResponse when no JSON value can be located in the text.
var ErrNoJSON = errors.New("no json value found in model output")

// ExtractJSON locates a JSON object or array inside free-form model output. It prefers a
// fenced block labelled json, then any fenced block, then the first balanced {...} or [...] span.
func ExtractJSON(content string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, &ErrInvalidResponse{Raw: content, Err: ErrNoJSON}
	}

	candidates := make([]string, 0, 3)
	if match := jsonFencePattern.FindStringSubmatch(trimmed); len(match) > 1 {
		candidates = append(candidates, match[1])
	}
	if match := anyFencePattern.FindStringSubmatch(trimmed); len(match) > 1 {
		candidates = append(candidates, match[1])
	}
	candidates = append(candidates, trimmed)

	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if isContainer(candidate) && json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
		if span, ok := firstBalancedSpan(candidate); ok {
			return json.RawMessage(span), nil
		}
	}

	return nil, &ErrInvalidResponse{Raw: content, Err: ErrNoJSON}
}

func isContainer(s string) bool {
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

// firstBalancedSpan scans for the first '{' or '[' that opens a syntactically valid JSON value.
func firstBalancedSpan(text string) (string, bool) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' && text[start] != '[' {
			continue
		}
		end, ok := matchClosing(text, start)
		if !ok {
			continue
		}
		span := text[start : end+1]
		if json.Valid([]byte(span)) {
			return span, true
		}
	}
	return "", false
}

func matchClosing(text string, start int) (int, bool) {
	stack := make([]byte, 0, 8)
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
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
