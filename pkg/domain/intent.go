package domain

// Intent is one classification candidate for a message text.
type Intent struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// RankedIntents is a classifier result, ordered or not.
type RankedIntents []Intent

// Top returns the highest-scoring intent and true, or a zero Intent and
// false when the list is empty.
func (r RankedIntents) Top() (Intent, bool) {
	if len(r) == 0 {
		return Intent{}, false
	}
	best := r[0]
	for _, in := range r[1:] {
		if in.Score > best.Score {
			best = in
		}
	}
	return best, true
}
