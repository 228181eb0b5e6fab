package metroline_test

// titles wraps plain stage titles for Normalize.
func titles(ts ...string) []any {
	out := make([]any, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out
}
