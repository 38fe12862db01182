package listing

// Partition splits items into those satisfying pred and those that do not,
// preserving relative order in both halves. Used to derive active/revoked
// summary counts from a single unfiltered fetch; the per-status list views
// themselves are sourced from server-filtered queries and never re-apply
// this predicate.
func Partition[T any](items []T, pred func(T) bool) (in, out []T) {
	in = make([]T, 0, len(items))
	out = make([]T, 0)
	for _, item := range items {
		if pred(item) {
			in = append(in, item)
		} else {
			out = append(out, item)
		}
	}
	return in, out
}
