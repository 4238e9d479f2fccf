package sch

import (
	"fmt"
	"io"
	"strings"
)

const linePattern = "%-8s | %-32s | %3d/%-3d | %s"

// WriteReport prints one line per Result to w, colouring fatal
// failures red and warning failures yellow.
func WriteReport(w io.Writer, results []Result) {
	for _, res := range results {
		level := LevelWarn
		if res.Severe {
			level = LevelFatal
		}
		msg := "ok"
		if res.Failed() {
			msg = shorten(res.Message, 96)
		}
		fmt.Fprint(w, colorFor(res))
		fmt.Fprintf(w, linePattern, level, res.Ident, res.Pass, res.Total, msg)
		fmt.Fprintln(w, "\033[0m")
	}
}

// Summary reduces results to a one-line pass/fail tally.
func Summary(results []Result) string {
	var pass, fail int
	for _, res := range results {
		if res.Failed() {
			fail++
		} else {
			pass++
		}
	}
	return fmt.Sprintf("%d passed, %d failed", pass, fail)
}

func colorFor(res Result) string {
	if !res.Failed() {
		return ""
	}
	if res.Severe {
		return "\033[31m"
	}
	return "\033[33m"
}

// shorten trims a diagnostic message to a terminal-friendly length,
// breaking on a word boundary rather than mid-word.
func shorten(str string, maxLength int) string {
	if len(str) <= maxLength {
		return str
	}
	idx := strings.IndexRune(str[maxLength:], ' ')
	if idx < 0 {
		return str
	}
	return str[:maxLength+idx] + "..."
}
