package listing

import "strings"

// Matches reports whether any of the fields contains query as a
// case-insensitive substring. An empty or whitespace-only query matches
// everything.
func Matches(query string, fields ...string) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Search returns the subsequence of items whose searchable text contains
// query as a case-insensitive substring. An empty or whitespace-only query
// returns the input unfiltered (pass-through, not an empty result).
//
// Pure and idempotent: filtering an already-filtered list with the same
// query yields the same result, so it is safe to re-invoke on every
// keystroke.
func Search[T any](items []T, query string, text func(T) []string) []T {
	if strings.TrimSpace(query) == "" {
		return items
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		if Matches(query, text(item)...) {
			out = append(out, item)
		}
	}
	return out
}
