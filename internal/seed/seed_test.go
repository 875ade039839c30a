package seed

import (
	"testing"

	"kizuna/internal/database"
	"kizuna/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestRunPopulatesGraph(t *testing.T) {
	db := setupSeedTestDB(t)

	require.NoError(t, Run(db, Options{NumUsers: 20, PremiumShare: 0.8}))

	var userCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	assert.Equal(t, int64(20), userCount)

	var likeCount int64
	require.NoError(t, db.Model(&models.Like{}).Count(&likeCount).Error)
	assert.Greater(t, likeCount, int64(0))

	var matchCount int64
	require.NoError(t, db.Model(&models.Match{}).Count(&matchCount).Error)
	assert.Greater(t, matchCount, int64(0))

	// Every match is canonical and has exactly one chat.
	var matches []models.Match
	require.NoError(t, db.Find(&matches).Error)
	for _, m := range matches {
		assert.Less(t, m.UserAID, m.UserBID)
		var chatCount int64
		require.NoError(t, db.Model(&models.Chat{}).Where("match_id = ?", m.ID).Count(&chatCount).Error)
		assert.Equal(t, int64(1), chatCount)
	}

	// Matched pairs hold reciprocal active likes.
	for _, m := range matches {
		var reciprocal int64
		require.NoError(t, db.Model(&models.Like{}).
			Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
				m.UserAID, m.UserBID, m.UserBID, m.UserAID).
			Where("status = ?", models.LikeStatusActive).
			Count(&reciprocal).Error)
		assert.Equal(t, int64(2), reciprocal)
	}
}

func TestRunWithCleanIsRepeatable(t *testing.T) {
	db := setupSeedTestDB(t)

	require.NoError(t, Run(db, Options{NumUsers: 10, PremiumShare: 0.5}))
	require.NoError(t, Run(db, Options{NumUsers: 10, PremiumShare: 0.5, ShouldClean: true}))

	var userCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	assert.Equal(t, int64(10), userCount)
}

func TestCreateChatRequestPendingMessages(t *testing.T) {
	db := setupSeedTestDB(t)
	f := NewFactory(db)

	from, err := f.CreateUser()
	require.NoError(t, err)
	to, err := f.CreateUser()
	require.NoError(t, err)

	request, err := f.CreateChatRequest(from.ID, to.ID, models.ChatRequestStatusPending)
	require.NoError(t, err)
	assert.NotEmpty(t, request.InitialMessage)
	assert.Nil(t, request.RespondedAt)

	var messages []models.ChatRequestMessage
	require.NoError(t, db.Where("chat_request_id = ?", request.ID).Find(&messages).Error)
	for _, m := range messages {
		assert.Equal(t, from.ID, m.SenderID)
		assert.Nil(t, m.MigratedAt)
	}
}
