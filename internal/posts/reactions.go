package posts

import "github.com/maskapp/mask/internal/models"

// ReactionOutcome is the effect of a toggle
type ReactionOutcome string

const (
	ReactionAdded   ReactionOutcome = "added"
	ReactionRemoved ReactionOutcome = "removed"
	ReactionChanged ReactionOutcome = "changed"
)

// ReactionSet maps user ID to that user's single reaction on a post
type ReactionSet map[string]models.ReactionType

func NewReactionSet(reactions []models.Reaction) ReactionSet {
	rs := make(ReactionSet, len(reactions))
	for _, r := range reactions {
		rs[r.UserID] = r.Type
	}
	return rs
}

// Toggle applies a reaction: same type removes it, a different type
// overwrites it, no reaction adds it.
func (rs ReactionSet) Toggle(userID string, t models.ReactionType) ReactionOutcome {
	current, ok := rs[userID]
	switch {
	case !ok:
		rs[userID] = t
		return ReactionAdded
	case current == t:
		delete(rs, userID)
		return ReactionRemoved
	default:
		rs[userID] = t
		return ReactionChanged
	}
}

// Counts tallies reactions by type
func (rs ReactionSet) Counts() map[models.ReactionType]int {
	counts := make(map[models.ReactionType]int)
	for _, t := range rs {
		counts[t]++
	}
	return counts
}

// Aggregate is the reaction summary returned after a toggle
type Aggregate struct {
	PostID     string                      `json:"post_id"`
	Reactions  map[models.ReactionType]int `json:"reactions"`
	Total      int                         `json:"total"`
	MyReaction models.ReactionType         `json:"my_reaction,omitempty"`
	Outcome    ReactionOutcome             `json:"outcome,omitempty"`
}
