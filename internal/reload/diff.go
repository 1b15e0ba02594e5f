package reload

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const contextLines = 2

// Diff renders the line changes between two versions of a source file, with
// a little unchanged context around each change. Identical inputs give "".
func Diff(name string, before string, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	fmt.Fprintf(&out, "--- %s\n+++ %s\n", name, name)
	for i, d := range diffs {
		text := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			writeLines(&out, "-", text)
		case diffmatchpatch.DiffInsert:
			writeLines(&out, "+", text)
		default:
			writeContext(&out, text, i == 0, i == len(diffs)-1)
		}
	}

	return out.String()
}

func writeContext(out *strings.Builder, lines []string, first bool, last bool) {
	head, tail := contextLines, contextLines
	if first {
		head = 0
	}
	if last {
		tail = 0
	}

	if len(lines) <= head+tail {
		writeLines(out, " ", lines)
		return
	}

	writeLines(out, " ", lines[:head])
	out.WriteString("@@\n")
	writeLines(out, " ", lines[len(lines)-tail:])
}

func writeLines(out *strings.Builder, prefix string, lines []string) {
	for _, line := range lines {
		out.WriteString(prefix)
		out.WriteString(line)
		out.WriteByte('\n')
	}
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}

	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
