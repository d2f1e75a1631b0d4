package transcribe

import "strings"

// maxOverlap caps how many characters of suffix/prefix overlap the
// merge scans for. ASR duplication at chunk boundaries is short.
const maxOverlap = 20

// MergeOverlap joins two transcript fragments, collapsing simple
// duplication: containment in either direction, then the longest
// suffix-of-existing / prefix-of-next match.
func MergeOverlap(existing, next string) string {
	existing = strings.TrimSpace(existing)
	next = strings.TrimSpace(next)
	if existing == "" {
		return next
	}
	if next == "" {
		return existing
	}
	if strings.Contains(existing, next) {
		return existing
	}
	if strings.Contains(next, existing) {
		return next
	}
	limit := min(maxOverlap, len(existing), len(next))
	for k := limit; k > 0; k-- {
		if strings.HasSuffix(existing, next[:k]) {
			return existing + next[k:]
		}
	}
	return existing + " " + next
}
