// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"kizuna/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	ShouldClean bool
	// PremiumShare is the fraction of users on the premium tier.
	PremiumShare float64
}

// DefaultOptions returns a seed profile sized for local development.
func DefaultOptions() Options {
	return Options{
		NumUsers:     40,
		PremiumShare: 0.8,
	}
}

var openers = []string{
	"Hey, I think we'd get along!",
	"Your profile made me smile.",
	"Coffee sometime?",
	"We seem to like the same things.",
	"Hello from the other side of the app.",
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:  db,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		DisplayName:    gofakeit.Name(),
		Email:          fmt.Sprintf("%d.%s", gofakeit.Number(100, 999), gofakeit.Email()),
		MembershipTier: models.MembershipTierFree,
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// CreateLike persists an active like edge.
func (f *Factory) CreateLike(from, to uint) error {
	like := &models.Like{FromUserID: from, ToUserID: to, Status: models.LikeStatusActive}
	return f.db.Create(like).Error
}

// CreateMatchWithChat persists a canonical match, its chat, and a short
// conversation between both members.
func (f *Factory) CreateMatchWithChat(a, b uint, numMessages int) (*models.Match, error) {
	ua, ub := models.CanonicalPair(a, b)
	match := &models.Match{UserAID: ua, UserBID: ub, ActiveFlag: true}
	if err := f.db.Create(match).Error; err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	chat := &models.Chat{MatchID: match.ID}
	if err := f.db.Create(chat).Error; err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}

	sender, other := a, b
	for i := 0; i < numMessages; i++ {
		message := &models.Message{
			ChatID:    chat.ID,
			SenderID:  sender,
			Body:      gofakeit.Sentence(f.rng.Intn(10) + 3),
			CreatedAt: time.Now().Add(-time.Duration(numMessages-i) * time.Minute),
		}
		if err := f.db.Create(message).Error; err != nil {
			return nil, fmt.Errorf("create message: %w", err)
		}
		sender, other = other, sender
	}

	return match, nil
}

// CreateChatRequest persists a chat request in the given status, with a
// couple of pending messages from the requester when still pending.
func (f *Factory) CreateChatRequest(from, to uint, status models.ChatRequestStatus) (*models.ChatRequest, error) {
	request := &models.ChatRequest{
		FromUserID:     from,
		ToUserID:       to,
		Status:         status,
		InitialMessage: openers[f.rng.Intn(len(openers))],
	}
	if status != models.ChatRequestStatusPending {
		now := time.Now().UTC()
		request.RespondedAt = &now
	}
	if err := f.db.Create(request).Error; err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}

	if status == models.ChatRequestStatusPending {
		for i := 0; i < f.rng.Intn(3); i++ {
			message := &models.ChatRequestMessage{
				ChatRequestID: request.ID,
				SenderID:      from,
				Content:       gofakeit.Sentence(f.rng.Intn(8) + 2),
			}
			if err := f.db.Create(message).Error; err != nil {
				return nil, fmt.Errorf("create pending message: %w", err)
			}
		}
	}

	return request, nil
}

// Run populates the database with a believable social graph: a pool of
// users, one-sided likes, mutual matches with chats, and chat requests in
// every state.
func Run(db *gorm.DB, opts Options) error {
	if opts.NumUsers <= 0 {
		opts.NumUsers = DefaultOptions().NumUsers
	}
	if opts.PremiumShare <= 0 {
		opts.PremiumShare = DefaultOptions().PremiumShare
	}

	if opts.ShouldClean {
		if err := Clean(db); err != nil {
			return err
		}
	}

	f := NewFactory(db)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		tier := models.MembershipTierFree
		if f.rng.Float64() < opts.PremiumShare {
			tier = models.MembershipTierPremium
		}
		user, err := f.CreateUser(func(u *models.User) {
			u.MembershipTier = tier
		})
		if err != nil {
			return err
		}
		users = append(users, user)
	}

	// One-sided likes between random pairs.
	liked := make(map[[2]uint]bool)
	for i := 0; i < opts.NumUsers*2; i++ {
		from := users[f.rng.Intn(len(users))]
		to := users[f.rng.Intn(len(users))]
		if from.ID == to.ID || liked[[2]uint{from.ID, to.ID}] {
			continue
		}
		liked[[2]uint{from.ID, to.ID}] = true
		if err := f.CreateLike(from.ID, to.ID); err != nil {
			return err
		}
	}

	// Mutual pairs: both likes, the match, its chat, and a conversation.
	matched := 0
	matchedPairs := make(map[[2]uint]bool)
	for i := 0; i+1 < len(users) && matched < opts.NumUsers/4; i += 2 {
		a, b := users[i], users[i+1]
		if liked[[2]uint{a.ID, b.ID}] || liked[[2]uint{b.ID, a.ID}] {
			continue
		}
		liked[[2]uint{a.ID, b.ID}] = true
		liked[[2]uint{b.ID, a.ID}] = true
		if err := f.CreateLike(a.ID, b.ID); err != nil {
			return err
		}
		if err := f.CreateLike(b.ID, a.ID); err != nil {
			return err
		}
		if _, err := f.CreateMatchWithChat(a.ID, b.ID, f.rng.Intn(12)+2); err != nil {
			return err
		}
		ua, ub := models.CanonicalPair(a.ID, b.ID)
		matchedPairs[[2]uint{ua, ub}] = true
		matched++
	}

	// Chat requests in every state between users who never matched.
	statuses := []models.ChatRequestStatus{
		models.ChatRequestStatusPending,
		models.ChatRequestStatusPending,
		models.ChatRequestStatusAccepted,
		models.ChatRequestStatusDeclined,
	}
	idx := 0
	for _, status := range statuses {
		var from, to *models.User
		for ; idx+1 < len(users); idx += 2 {
			ua, ub := models.CanonicalPair(users[idx].ID, users[idx+1].ID)
			if !matchedPairs[[2]uint{ua, ub}] {
				from, to = users[idx], users[idx+1]
				break
			}
		}
		if from == nil {
			break
		}
		idx += 2

		if _, err := f.CreateChatRequest(from.ID, to.ID, status); err != nil {
			return err
		}
		// An accepted handshake implies the match and chat already exist.
		if status == models.ChatRequestStatusAccepted {
			if _, err := f.CreateMatchWithChat(from.ID, to.ID, 3); err != nil {
				return err
			}
		}
	}

	log.Printf("Seed complete: %d users, %d matches", len(users), matched)
	return nil
}

// Clean removes all seeded data. Order respects foreign keys.
func Clean(db *gorm.DB) error {
	tables := []string{
		"chat_request_messages", "chat_requests",
		"messages", "chats", "matches", "likes", "users",
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clean %s: %w", table, err)
		}
	}
	return nil
}
