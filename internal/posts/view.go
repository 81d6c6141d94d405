package posts

import (
	"context"
	"time"

	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GroupRef is the group summary embedded in a post
type GroupRef struct {
	ID      string              `json:"id"`
	Name    string              `json:"name"`
	Privacy models.GroupPrivacy `json:"privacy"`
}

// PageRef is the page summary embedded in a post
type PageRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FactCheckPill is the annotation shown next to a post
type FactCheckPill struct {
	Verdict     models.Verdict `json:"verdict"`
	Explanation string         `json:"explanation"`
	Confidence  *float64       `json:"confidence,omitempty"`
}

// PostView is a post as rendered for one viewer
type PostView struct {
	ID       string            `json:"id"`
	Type     models.PostType   `json:"type"`
	Scope    models.PostScope  `json:"scope"`
	Author   models.PublicUser `json:"author"`
	Text     string            `json:"text"`
	ImageURL string            `json:"image_url,omitempty"`
	Group    *GroupRef         `json:"group,omitempty"`
	Page     *PageRef          `json:"page,omitempty"`

	// Original is the read-only embedded post of a reshare
	Original            *PostView `json:"original,omitempty"`
	OriginalUnavailable bool      `json:"original_unavailable,omitempty"`

	Reactions     map[models.ReactionType]int `json:"reactions"`
	ReactionCount int                         `json:"reaction_count"`
	CommentCount  int                         `json:"comment_count"`
	ShareCount    int                         `json:"share_count"`
	MyReaction    models.ReactionType         `json:"my_reaction,omitempty"`
	Bookmarked    bool                        `json:"bookmarked"`
	FactCheck     *FactCheckPill              `json:"fact_check,omitempty"`

	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// WithRelations preloads everything a PostView needs
func WithRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Group").Preload("Page").
		Preload("OriginalPost").
		Preload("OriginalPost.Author").
		Preload("OriginalPost.Group").
		Preload("OriginalPost.Page")
}

type reactionCount struct {
	PostID string
	Type   models.ReactionType
	Count  int
}

// Hydrate renders posts (loaded WithRelations) for a viewer, resolving
// reaction tallies, the viewer's reaction, bookmark state and fact-check
// pills in a fixed number of queries.
func (s *Service) Hydrate(ctx context.Context, v *Viewer, list []models.Post) []PostView {
	if len(list) == 0 {
		return []PostView{}
	}
	now := s.now()
	db := s.db.WithContext(ctx)

	ids := make([]string, 0, len(list)*2)
	for i := range list {
		ids = append(ids, list[i].ID)
		if list[i].OriginalPost != nil {
			ids = append(ids, list[i].OriginalPost.ID)
		}
	}

	tallies := make(map[string]map[models.ReactionType]int)
	var counts []reactionCount
	if err := db.Model(&models.Reaction{}).
		Select("post_id, type, COUNT(*) AS count").
		Where("post_id IN ?", ids).
		Group("post_id, type").
		Scan(&counts).Error; err != nil {
		logger.Log.Warn("Failed to tally reactions", zap.Error(err))
	}
	for _, c := range counts {
		if tallies[c.PostID] == nil {
			tallies[c.PostID] = make(map[models.ReactionType]int)
		}
		tallies[c.PostID][c.Type] = c.Count
	}

	mine := make(map[string]models.ReactionType)
	bookmarked := make(map[string]bool)
	if v != nil && v.ID != "" {
		var own []models.Reaction
		if err := db.Where("user_id = ? AND post_id IN ?", v.ID, ids).Find(&own).Error; err == nil {
			for _, r := range own {
				mine[r.PostID] = r.Type
			}
		}
		var marks []string
		if err := db.Model(&models.Bookmark{}).
			Where("user_id = ? AND post_id IN ?", v.ID, ids).
			Pluck("post_id", &marks).Error; err == nil {
			for _, id := range marks {
				bookmarked[id] = true
			}
		}
	}

	var pills map[string]models.FactCheck
	if s.factcheck != nil {
		pills = s.factcheck.Pills(ctx, ids)
	}

	render := func(p *models.Post) PostView {
		view := PostView{
			ID:            p.ID,
			Type:          p.Type,
			Scope:         p.Scope,
			Author:        p.Author.Public(),
			Text:          p.Text,
			ImageURL:      p.ImageURL,
			Reactions:     tallies[p.ID],
			ReactionCount: p.ReactionCount,
			CommentCount:  p.CommentCount,
			ShareCount:    p.ShareCount,
			MyReaction:    mine[p.ID],
			Bookmarked:    bookmarked[p.ID],
			ExpiresAt:     p.ExpiresAt,
			CreatedAt:     p.CreatedAt,
		}
		if view.Reactions == nil {
			view.Reactions = map[models.ReactionType]int{}
		}
		if p.Group != nil {
			view.Group = &GroupRef{ID: p.Group.ID, Name: p.Group.Name, Privacy: p.Group.Privacy}
		}
		if p.Page != nil {
			view.Page = &PageRef{ID: p.Page.ID, Name: p.Page.Name}
		}
		if fc, ok := pills[p.RootID()]; ok {
			view.FactCheck = &FactCheckPill{Verdict: fc.Verdict, Explanation: fc.Explanation, Confidence: fc.Confidence}
		}
		return view
	}

	out := make([]PostView, 0, len(list))
	for i := range list {
		p := &list[i]
		view := render(p)
		if p.Type == models.PostReshare {
			if CanSee(v, p.OriginalPost, now) {
				original := render(p.OriginalPost)
				view.Original = &original
			} else {
				view.OriginalUnavailable = true
			}
		}
		out = append(out, view)
	}
	return out
}
