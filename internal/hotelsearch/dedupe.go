package hotelsearch

// DedupeReviews collapses reviews that share identical text, keeping the
// first occurrence and its position. Reviews with empty text carry no
// usable dedup key and are retained as-is, each occurrence independently.
func DedupeReviews(reviews []Review) []Review {
	out := make([]Review, 0, len(reviews))
	seen := make(map[string]struct{}, len(reviews))
	for _, r := range reviews {
		if r.Text == "" {
			out = append(out, r)
			continue
		}
		if _, ok := seen[r.Text]; ok {
			continue
		}
		seen[r.Text] = struct{}{}
		out = append(out, r)
	}
	return out
}

// MergeReviews combines a preferred review set with a fallback set. The
// preferred set is concatenated first so that on a text collision the
// preferred instance survives deduplication.
func MergeReviews(preferred, fallback []Review) []Review {
	combined := make([]Review, 0, len(preferred)+len(fallback))
	combined = append(combined, preferred...)
	combined = append(combined, fallback...)
	return DedupeReviews(combined)
}
