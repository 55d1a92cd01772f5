package domain

// RetrievedFragment is one similarity hit. Rank is implicit in the
// position within a RetrievalResult (index 0 = most similar).
type RetrievedFragment struct {
	// Fragment is the matched fragment.
	Fragment Fragment

	// Score is the cosine similarity against the query vector.
	Score float64
}

// RetrievalResult is the ordered fragment list returned for one query.
// It is ephemeral: consumed by the conversation engine and by source
// attribution, never persisted.
type RetrievalResult []RetrievedFragment

// GroundingText concatenates the retrieved fragment bodies into the
// context block handed to the generative model.
func (r RetrievalResult) GroundingText() string {
	if len(r) == 0 {
		return ""
	}
	text := r[0].Fragment.Body
	for _, hit := range r[1:] {
		text += "\n\n" + hit.Fragment.Body
	}
	return text
}
