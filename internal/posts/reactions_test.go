package posts

import (
	"testing"

	"github.com/maskapp/mask/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestReactionSetToggle(t *testing.T) {
	rs := ReactionSet{}

	assert.Equal(t, ReactionAdded, rs.Toggle("u1", models.ReactionLike))
	assert.Equal(t, ReactionRemoved, rs.Toggle("u1", models.ReactionLike))
	_, ok := rs["u1"]
	assert.False(t, ok, "same type twice leaves no reaction")

	rs.Toggle("u1", models.ReactionLike)
	assert.Equal(t, ReactionChanged, rs.Toggle("u1", models.ReactionLove))
	assert.Equal(t, models.ReactionLove, rs["u1"])
	assert.Len(t, rs, 1, "a different type overwrites rather than appends")
}

func TestReactionSetCounts(t *testing.T) {
	rs := NewReactionSet([]models.Reaction{
		{UserID: "a", Type: models.ReactionLike},
		{UserID: "b", Type: models.ReactionLike},
		{UserID: "c", Type: models.ReactionWow},
	})
	assert.Equal(t, map[models.ReactionType]int{models.ReactionLike: 2, models.ReactionWow: 1}, rs.Counts())
}
