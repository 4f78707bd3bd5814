// CLAUDE:SUMMARY Pure slug generation: sanitize titles into URL-safe segments, resolve sibling collisions with numeric suffixes.

// Package slug turns page titles into URL-safe path segments.
//
// A slug is lowercase, contains only [a-z0-9-], never starts or ends with
// a hyphen, and is at most MaxLen characters. Uniqueness is always scoped
// to a single sibling set: the same slug may appear under different parents.
package slug

import (
	"strconv"
	"strings"
)

// MaxLen is the maximum slug length in bytes.
const MaxLen = 100

// Fallback is the slug used when sanitization leaves nothing.
const Fallback = "untitled"

// Make derives a slug from a title. Empty or fully-stripped titles yield
// Fallback. The result is non-empty, ≤ MaxLen, and matches
// [a-z0-9]([a-z0-9-]*[a-z0-9])?.
func Make(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		// Any run of other characters collapses into a single hyphen.
		pendingHyphen = true
	}
	s := b.String()
	if s == "" {
		return Fallback
	}
	return truncate(s, MaxLen)
}

// Unique returns base if taken(base) is false, otherwise the first of
// base-2, base-3, … that is free. The suffix never pushes the slug past
// MaxLen: the base is truncated further to make room.
func Unique(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for n := 2; ; n++ {
		suffix := "-" + strconv.Itoa(n)
		head := base
		if len(head)+len(suffix) > MaxLen {
			head = truncate(head, MaxLen-len(suffix))
		}
		candidate := head + suffix
		if !taken(candidate) {
			return candidate
		}
	}
}

// IsValid reports whether s is a well-formed slug.
func IsValid(s string) bool {
	if s == "" || len(s) > MaxLen {
		return false
	}
	if s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return false
		}
	}
	return true
}

// truncate cuts s to at most n bytes and strips any trailing hyphen the
// cut may have exposed. s is pure ASCII here, so byte slicing is safe.
func truncate(s string, n int) string {
	if len(s) > n {
		s = s[:n]
	}
	return strings.TrimRight(s, "-")
}
