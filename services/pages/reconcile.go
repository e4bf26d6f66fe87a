package pages

// performThenReload runs a mutation and, only if it succeeds, refetches
// canonical state. On mutation failure the reload is skipped, so the
// caller's displayed snapshot stays exactly as it was. On success the
// reload result replaces displayed state wholesale — local patching is
// never attempted, because ownership fields (mine, authorId) are computed
// server-side against the request's credentials and a locally guessed
// entry can carry stale ownership. The reload is the only way to get a
// consistent (authorId, mine, content) view.
func performThenReload[T any](mutate func() error, reload func() (T, error)) (T, bool, error) {
	var zero T
	if err := mutate(); err != nil {
		return zero, false, err
	}
	fresh, err := reload()
	if err != nil {
		// The write landed but the reload did not: displayed state is
		// kept as-is and the error surfaces so the user can refresh.
		return zero, false, err
	}
	return fresh, true, nil
}
