package graph

// UnresolvedReasonCounts aggregates the leftovers by reason for run
// reporting.
func (r BuildResult) UnresolvedReasonCounts() map[UnresolvedReason]int {
	counts := make(map[UnresolvedReason]int)
	for _, u := range r.Unresolved {
		reason := u.Reason
		if reason == "" {
			reason = ReasonNoCandidate
		}
		counts[reason]++
	}
	return counts
}
