// Command codereview reviews a source snippet with an LLM: it detects
// issues, proposes a fix, re-checks the fix and writes unit tests.
//
// Usage:
//
//	codereview review --config review.yaml path/to/file.py
//	cat snippet.py | codereview review --provider anthropic
package main

import (
	"fmt"
	"os"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	if err := newRootCmd(Version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
