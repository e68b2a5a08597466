// Package testutil provides helpers for testing report browser views.
//
// Views are compared after StripANSI so assertions do not depend on the
// terminal's color profile:
//
//	model, _ := testutil.SimulateKeyPress(browser, "enter")
//	testutil.AssertViewContains(t, testutil.StripANSI(model.View()), []string{"Compliant"})
package testutil

import (
	"strings"
	"testing"
)

// StripANSI removes ANSI escape sequences from a string.
func StripANSI(str string) string {
	var result strings.Builder
	ansi := false

	for _, r := range str {
		switch {
		case r == '\x1b':
			ansi = true
		case ansi:
			if r == 'm' {
				ansi = false
			}
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

// NormalizeWhitespace trims every line, collapses runs of spaces and drops
// blank lines.
func NormalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	normalized := make([]string, 0, len(lines))

	for _, line := range lines {
		if fields := strings.Fields(line); len(fields) > 0 {
			normalized = append(normalized, strings.Join(fields, " "))
		}
	}

	return strings.Join(normalized, "\n")
}

// AssertViewContains checks that a view contains every expected string.
func AssertViewContains(t *testing.T, view string, expected []string) {
	t.Helper()

	for _, exp := range expected {
		if !strings.Contains(view, exp) {
			t.Errorf("Expected view to contain %q but it didn't.\nView:\n%s", exp, view)
		}
	}
}

// AssertViewNotContains checks that a view contains none of the strings.
func AssertViewNotContains(t *testing.T, view string, unexpected []string) {
	t.Helper()

	for _, unexp := range unexpected {
		if strings.Contains(view, unexp) {
			t.Errorf("Expected view NOT to contain %q but it did.\nView:\n%s", unexp, view)
		}
	}
}

// AssertContainsInOrder checks that strings appear in the view in the given order.
func AssertContainsInOrder(t *testing.T, view string, ordered []string) {
	t.Helper()

	offset := 0
	for _, str := range ordered {
		index := strings.Index(view[offset:], str)
		if index == -1 {
			t.Errorf("Expected to find %q after position %d but it wasn't found.\nView:\n%s", str, offset, view)
			return
		}
		offset += index + len(str)
	}
}
