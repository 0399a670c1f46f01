package model

import "testing"

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  {\"a\": 1}\n", `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\nx = 1\n```", "x = 1"},
		{"language fence keeps indentation", "```python\ndef f():\n    return 1\n```", "def f():\n    return 1"},
		{"single line", "```json {\"a\": 1}```", `{"a": 1}`},
		{"missing closing fence", "```go\nfunc f() {}\n", "func f() {}"},
		{"nested", "```\n```json\n{}\n```\n```", "{}"},
		{"only fence", "```", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.in); got != tt.want {
				t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripFences_Idempotent(t *testing.T) {
	inputs := []string{
		"```json\n{\"a\": 1}\n```",
		"```python\nprint('```')\n```",
		"``` \ncode\n```",
		"text ``` in the middle",
		"```c++\nint main() {}\n```\n",
	}

	for _, in := range inputs {
		once := StripFences(in)
		if twice := StripFences(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
