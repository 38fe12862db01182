// Package listing provides the shared list-controller primitives used by
// every resource page: version collapse, free-text filtering, and
// active/revoked partitioning. All functions are pure; callers own the
// slices they pass in and get back.
package listing

import (
	"sort"
	"time"
)

// Collapse reduces a list of versioned entities to one entry per grouping
// key, keeping the entry with the greatest updated-at timestamp. Ties keep
// the earliest-encountered entry (the comparison is strictly greater, so no
// swap happens on equal timestamps). The input is not mutated; the result is
// a new slice sorted descending by updated-at.
//
// Runs in O(n) for the scan plus the final sort.
func Collapse[T any](items []T, key func(T) string, updatedAt func(T) time.Time) []T {
	if len(items) == 0 {
		return []T{}
	}

	// First-seen order per key, so equal timestamps resolve deterministically.
	latest := make(map[string]T, len(items))
	order := make([]string, 0, len(items))

	for _, item := range items {
		k := key(item)
		existing, seen := latest[k]
		if !seen {
			latest[k] = item
			order = append(order, k)
			continue
		}
		if updatedAt(item).After(updatedAt(existing)) {
			latest[k] = item
		}
	}

	out := make([]T, 0, len(order))
	for _, k := range order {
		out = append(out, latest[k])
	}

	sort.SliceStable(out, func(i, j int) bool {
		return updatedAt(out[i]).After(updatedAt(out[j]))
	})

	return out
}
