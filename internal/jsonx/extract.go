// Package jsonx pulls JSON out of noisy generative-model text. Models prepend
// and append commentary around the JSON they were asked for; extraction finds
// the first balanced array span and parses only that.
package jsonx

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON signals that no parsable JSON array was found in the text.
// Callers must have a deterministic fallback, never propagate this as a hard error.
var ErrNoJSON = errors.New("jsonx: no json array found")

// ExtractArray locates the first balanced [...] span in text and parses it as
// a JSON array of strings. Non-string elements are stringified via their JSON
// representation so an array of numbers still yields usable values.
func ExtractArray(text string) ([]string, error) {
	span, ok := firstArraySpan(text)
	if !ok {
		return nil, ErrNoJSON
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return nil, ErrNoJSON
	}

	out := make([]string, 0, len(raw))
	for _, el := range raw {
		var s string
		if err := json.Unmarshal(el, &s); err == nil {
			out = append(out, s)
			continue
		}
		out = append(out, strings.TrimSpace(string(el)))
	}
	return out, nil
}

// firstArraySpan returns the first bracket-balanced [...] substring.
// Brackets inside JSON string literals do not count toward the balance.
func firstArraySpan(text string) (string, bool) {
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
