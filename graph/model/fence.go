package model

import (
	"regexp"
	"strings"
)

const fence = "```"

// fenceTag matches the info string of an opening fence: json, python, c++, objective-c.
var fenceTag = regexp.MustCompile(`^[A-Za-z0-9_+#.\-]*$`)

// StripFences removes the Markdown code fence an LLM wraps its answer in.
//
// A leading fence line (```json, ```python or bare ```) and a trailing ```
// are removed, then surrounding whitespace is trimmed. Text without fences
// is only trimmed. Nested fences are peeled until none remain, so
//
//	StripFences(StripFences(x)) == StripFences(x)
//
// holds for every input.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	for {
		next := stripOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func stripOnce(s string) string {
	if strings.HasPrefix(s, fence) {
		rest := s[len(fence):]
		firstLine, body, hasBody := strings.Cut(rest, "\n")
		switch {
		case hasBody && fenceTag.MatchString(strings.TrimSpace(firstLine)):
			rest = body
		case !hasBody:
			// Single line: ```json {"a":1}```
			tag, inline, ok := strings.Cut(rest, " ")
			if ok && tag != "" && fenceTag.MatchString(tag) {
				rest = inline
			}
		}
		s = rest
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}
