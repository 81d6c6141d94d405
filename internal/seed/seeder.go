// Package seed fills a development database with plausible fake data.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DevPassword is the password of every seeded account
const DevPassword = "password123"

// Counts sizes a dev seed
type Counts struct {
	Users    int
	Posts    int
	Groups   int
	Pages    int
	Comments int
	Messages int
}

var DefaultCounts = Counts{Users: 50, Posts: 300, Groups: 8, Pages: 6, Comments: 600, Messages: 200}

// Seeder handles database seeding operations
type Seeder struct {
	db   *gorm.DB
	rng  *rand.Rand
	hash string
	now  time.Time
}

func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	_ = gofakeit.Seed(seed)
	return &Seeder{db: db, rng: rand.New(rand.NewSource(seed)), now: time.Now().UTC()}
}

func (s *Seeder) passwordHash() (string, error) {
	if s.hash == "" {
		h, err := bcrypt.GenerateFromPassword([]byte(DevPassword), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("failed to hash password: %w", err)
		}
		s.hash = string(h)
	}
	return s.hash, nil
}

func (s *Seeder) pick(n int) int { return s.rng.Intn(n) }

func (s *Seeder) past(maxAge time.Duration) time.Time {
	return gofakeit.DateRange(s.now.Add(-maxAge), s.now).UTC()
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev(ctx context.Context, c Counts) error {
	db := s.db.WithContext(ctx)
	if err := s.seedQuotes(db); err != nil {
		return fmt.Errorf("failed to seed quotes: %w", err)
	}

	logger.Log.Info("Creating users...", zap.Int("count", c.Users))
	users, err := s.seedUsers(db, c.Users)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	if len(users) < 2 {
		return fmt.Errorf("need at least 2 users, have %d", len(users))
	}

	logger.Log.Info("Creating follows...")
	if err := s.seedFollows(db, users); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	logger.Log.Info("Creating groups and pages...")
	groups, err := s.seedGroups(db, users, c.Groups)
	if err != nil {
		return fmt.Errorf("failed to seed groups: %w", err)
	}
	pages, err := s.seedPages(db, users, c.Pages)
	if err != nil {
		return fmt.Errorf("failed to seed pages: %w", err)
	}

	logger.Log.Info("Creating posts...", zap.Int("count", c.Posts))
	posts, err := s.seedPosts(db, users, groups, pages, c.Posts)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	logger.Log.Info("Creating engagement...")
	if err := s.seedEngagement(db, users, posts, c.Comments); err != nil {
		return fmt.Errorf("failed to seed engagement: %w", err)
	}

	logger.Log.Info("Creating conversations...", zap.Int("messages", c.Messages))
	if err := s.seedMessages(db, users, c.Messages); err != nil {
		return fmt.Errorf("failed to seed messages: %w", err)
	}
	return nil
}

// SeedTest creates the fixed accounts end-to-end tests log in with
func (s *Seeder) SeedTest(ctx context.Context) error {
	hash, err := s.passwordHash()
	if err != nil {
		return err
	}
	fixtures := []struct {
		pseudonym string
		role      models.Role
	}{
		{"alice", models.RoleUser},
		{"bob", models.RoleUser},
		{"moderator", models.RoleModerator},
		{"admin", models.RoleAdmin},
	}
	db := s.db.WithContext(ctx)
	for _, f := range fixtures {
		email := f.pseudonym + "@example.com"
		u := models.User{Pseudonym: f.pseudonym, Email: &email, PasswordHash: hash, Role: f.role}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&u).Error; err != nil {
			return fmt.Errorf("failed to create %s: %w", f.pseudonym, err)
		}
	}
	return s.seedQuotes(db)
}

// Clean removes every row, children first
func (s *Seeder) Clean(ctx context.Context) error {
	all := models.AllModels()
	db := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Delete(all[i]).Error; err != nil {
			return fmt.Errorf("failed to clean %T: %w", all[i], err)
		}
	}
	return nil
}

func (s *Seeder) seedQuotes(db *gorm.DB) error {
	var n int64
	if err := db.Model(&models.Quote{}).Count(&n).Error; err != nil || n > 0 {
		return err
	}
	quotes := make([]models.Quote, 0, 12)
	for i := 0; i < 12; i++ {
		quotes = append(quotes, models.Quote{Text: gofakeit.HipsterSentence(), Author: gofakeit.Name(), Active: i%6 != 5})
	}
	return db.Create(&quotes).Error
}

func (s *Seeder) seedUsers(db *gorm.DB, count int) ([]models.User, error) {
	hash, err := s.passwordHash()
	if err != nil {
		return nil, err
	}
	users := make([]models.User, 0, count)
	taken := map[string]bool{}
	for len(users) < count {
		name := strings.ToLower(gofakeit.Username())
		if taken[name] || strings.HasPrefix(name, "deleted") {
			continue
		}
		taken[name] = true
		email := name + "@example.com"
		u := models.User{
			Pseudonym:    name,
			Email:        &email,
			PasswordHash: hash,
			Bio:          gofakeit.HipsterSentence(),
			AvatarURL:    fmt.Sprintf("https://api.dicebear.com/7.x/shapes/png?seed=%s", name),
			CreatedAt:    s.past(90 * 24 * time.Hour),
		}
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&u)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to create user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *Seeder) seedFollows(db *gorm.DB, users []models.User) error {
	followers := map[string]int{}
	following := map[string]int{}
	for _, u := range users {
		for k := s.pick(min(10, len(users))); k > 0; k-- {
			other := users[s.pick(len(users))]
			if other.ID == u.ID {
				continue
			}
			res := db.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Follow{FollowerID: u.ID, FolloweeID: other.ID})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				following[u.ID]++
				followers[other.ID]++
			}
		}
	}
	for _, u := range users {
		if err := db.Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
			"followers_count": followers[u.ID],
			"following_count": following[u.ID],
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedGroups(db *gorm.DB, users []models.User, count int) ([]models.Group, error) {
	groups := make([]models.Group, 0, count)
	for i := 0; i < count; i++ {
		owner := users[s.pick(len(users))]
		privacy := models.GroupPublic
		if i%3 == 2 {
			privacy = models.GroupPrivate
		}
		g := models.Group{
			Name:        fmt.Sprintf("%s %s club", gofakeit.City(), gofakeit.Word()),
			Description: gofakeit.HipsterSentence(),
			Privacy:     privacy,
			OwnerID:     owner.ID,
		}
		members := []models.GroupMember{{UserID: owner.ID, Role: models.GroupRoleAdmin, Status: models.MembershipActive}}
		seen := map[string]bool{owner.ID: true}
		for k := s.pick(len(users)); k > 0; k-- {
			u := users[s.pick(len(users))]
			if seen[u.ID] {
				continue
			}
			seen[u.ID] = true
			status := models.MembershipActive
			if privacy == models.GroupPrivate && s.pick(4) == 0 {
				status = models.MembershipPending
			}
			members = append(members, models.GroupMember{UserID: u.ID, Role: models.GroupRoleMember, Status: status})
		}
		for _, m := range members {
			if m.Status == models.MembershipActive {
				g.MemberCount++
			}
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&g).Error; err != nil {
				return err
			}
			for i := range members {
				members[i].GroupID = g.ID
			}
			return tx.Create(&members).Error
		})
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (s *Seeder) seedPages(db *gorm.DB, users []models.User, count int) ([]models.Page, error) {
	pages := make([]models.Page, 0, count)
	for i := 0; i < count; i++ {
		owner := users[s.pick(len(users))]
		p := models.Page{
			Name:        fmt.Sprintf("%s %s", gofakeit.Word(), gofakeit.City()),
			Description: gofakeit.HipsterSentence(),
			OwnerID:     owner.ID,
		}
		var followers []models.PageFollower
		seen := map[string]bool{}
		for k := s.pick(len(users)); k > 0; k-- {
			u := users[s.pick(len(users))]
			if !seen[u.ID] {
				seen[u.ID] = true
				followers = append(followers, models.PageFollower{UserID: u.ID})
			}
		}
		p.FollowerCount = len(followers)
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			if err := tx.Create(&models.PageAdmin{PageID: p.ID, UserID: owner.ID}).Error; err != nil {
				return err
			}
			for i := range followers {
				followers[i].PageID = p.ID
			}
			if len(followers) == 0 {
				return nil
			}
			return tx.Create(&followers).Error
		})
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, nil
}

// seedPosts mixes global, group and page posts; a few are ephemeral
func (s *Seeder) seedPosts(db *gorm.DB, users []models.User, groups []models.Group, pages []models.Page, count int) ([]models.Post, error) {
	var members []models.GroupMember
	if err := db.Where("status = ?", models.MembershipActive).Find(&members).Error; err != nil {
		return nil, err
	}
	var admins []models.PageAdmin
	if err := db.Find(&admins).Error; err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		p := models.Post{
			AuthorID:  users[s.pick(len(users))].ID,
			Text:      gofakeit.HipsterSentence(),
			Scope:     models.ScopeGlobal,
			Type:      models.PostOriginal,
			CreatedAt: s.past(14 * 24 * time.Hour),
		}
		switch roll := s.pick(10); {
		case roll < 2 && len(members) > 0:
			m := members[s.pick(len(members))]
			p.Scope, p.GroupID, p.AuthorID = models.ScopeGroup, &m.GroupID, m.UserID
		case roll < 3 && len(admins) > 0:
			a := admins[s.pick(len(admins))]
			p.Scope, p.PageID, p.AuthorID = models.ScopePage, &a.PageID, a.UserID
		case roll == 9:
			exp := s.now.Add(time.Duration(1+s.pick(48)) * time.Hour)
			p.ExpiresAt = &exp
		}
		if err := db.Create(&p).Error; err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (s *Seeder) seedEngagement(db *gorm.DB, users []models.User, posts []models.Post, comments int) error {
	if len(posts) == 0 {
		return nil
	}
	for _, p := range posts {
		for k := s.pick(min(8, len(users))); k > 0; k-- {
			u := users[s.pick(len(users))]
			r := models.Reaction{PostID: p.ID, UserID: u.ID, Type: models.ReactionTypes[s.pick(len(models.ReactionTypes))]}
			res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&r)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				if err := db.Model(&models.Post{}).Where("id = ?", p.ID).
					UpdateColumn("reaction_count", gorm.Expr("reaction_count + 1")).Error; err != nil {
					return err
				}
			}
		}
	}
	for i := 0; i < comments; i++ {
		p := posts[s.pick(len(posts))]
		c := models.Comment{
			PostID:    p.ID,
			UserID:    users[s.pick(len(users))].ID,
			Text:      gofakeit.HipsterSentence(),
			CreatedAt: gofakeit.DateRange(p.CreatedAt, s.now).UTC(),
		}
		if err := db.Create(&c).Error; err != nil {
			return err
		}
		if err := db.Model(&models.Post{}).Where("id = ?", p.ID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedMessages(db *gorm.DB, users []models.User, count int) error {
	convs := map[[2]string]*models.Conversation{}
	for i := 0; i < count; i++ {
		a, b := users[s.pick(len(users))], users[s.pick(len(users))]
		if a.ID == b.ID {
			continue
		}
		ua, ub := models.ConversationPair(a.ID, b.ID)
		key := [2]string{ua, ub}
		at := s.past(7 * 24 * time.Hour)

		conv, ok := convs[key]
		if !ok {
			fresh := models.Conversation{UserAID: ua, UserBID: ub, LastMessageAt: at}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
				return err
			}
			conv = &models.Conversation{}
			if err := db.First(conv, "user_a_id = ? AND user_b_id = ?", ua, ub).Error; err != nil {
				return err
			}
			convs[key] = conv
		}
		msg := models.Message{ConversationID: conv.ID, SenderID: a.ID, RecipientID: b.ID, Text: gofakeit.HipsterSentence(), CreatedAt: at}
		if s.pick(2) == 0 {
			read := at.Add(time.Minute)
			msg.ReadAt = &read
		}
		if err := db.Create(&msg).Error; err != nil {
			return err
		}
		if at.After(conv.LastMessageAt) {
			conv.LastMessageAt = at
			if err := db.Model(conv).Update("last_message_at", at).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
