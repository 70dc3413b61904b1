package domain

// Truncate cuts s to at most max runes. The cut never lands inside a
// multi-byte character, so the result is always valid UTF-8.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
