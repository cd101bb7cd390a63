// Package acctcode normalises and validates ledger account codes ("1000", "CASH.EUR", "AR_TRADE").
package acctcode

import (
	"regexp"
	"strings"
)

// Pattern is the accepted form of a normalised code.
const Pattern = `^[A-Z0-9][A-Z0-9_.-]{0,31}$`

var reCode = regexp.MustCompile(Pattern)

// IsValid reports whether s is an already-normalised account code.
func IsValid(s string) bool {
	return reCode.MatchString(s)
}

// Normalize upper-cases s, turns whitespace runs into a single '_' and trims
// separators from both ends. The result still has to pass IsValid.
func Normalize(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	out := make([]rune, 0, len(s))
	prevSep := false
	for _, r := range s {
		if r == ' ' || r == '\t' {
			if !prevSep {
				out = append(out, '_')
				prevSep = true
			}
			continue
		}
		prevSep = r == '_' || r == '.' || r == '-'
		out = append(out, r)
	}
	return strings.Trim(string(out), "_.-")
}
