package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when a model response carries no parsable JSON object.
var ErrNoJSON = errors.New("no JSON object found in response")

var thinkTagPattern = regexp.MustCompile(`(?s)^\s*<think>.*?</think>\s*`)

// ExtractJSONObject returns the first balanced, valid JSON object in a
// free-text model response. Leading <think> blocks and markdown fences are
// tolerated; an object that is not valid JSON is skipped in favour of the next.
func ExtractJSONObject(response string) (string, error) {
	s := thinkTagPattern.ReplaceAllString(response, "")
	for {
		start := strings.IndexByte(s, '{')
		if start < 0 {
			return "", ErrNoJSON
		}
		obj, ok := balancedObject(s[start:])
		if !ok {
			return "", ErrNoJSON
		}
		if json.Valid([]byte(obj)) {
			return obj, nil
		}
		s = s[start+1:]
	}
}

// balancedObject scans from an opening brace to its matching close,
// ignoring braces inside string literals.
func balancedObject(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// ParseJSONResponse extracts the first JSON object from a response and decodes it into T.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T
	obj, err := ExtractJSONObject(response)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return result, nil
}
