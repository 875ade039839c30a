package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"kizuna/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestLikeRepository_GetByPair(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	tests := []struct {
		name         string
		mockBehavior func()
		expectedLike *models.Like
		expectedErr  bool
	}{
		{
			name: "Found",
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "from_user_id", "to_user_id", "status"}).
					AddRow(4, 1, 2, "active")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "likes" WHERE from_user_id = $1 AND to_user_id = $2 ORDER BY "likes"."id" LIMIT $3`)).
					WithArgs(1, 2, 1).
					WillReturnRows(rows)
			},
			expectedLike: &models.Like{ID: 4, FromUserID: 1, ToUserID: 2, Status: models.LikeStatusActive},
		},
		{
			name: "Missing row is nil, not an error",
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "likes" WHERE from_user_id = $1 AND to_user_id = $2 ORDER BY "likes"."id" LIMIT $3`)).
					WithArgs(1, 2, 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
		},
		{
			name: "Database error",
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "likes" WHERE from_user_id = $1 AND to_user_id = $2 ORDER BY "likes"."id" LIMIT $3`)).
					WithArgs(1, 2, 1).
					WillReturnError(errors.New("connection timeout"))
			},
			expectedErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			like, err := repo.GetByPair(ctx, 1, 2)

			if tt.expectedErr {
				assert.Error(t, err)
			} else if tt.expectedLike == nil {
				assert.NoError(t, err)
				assert.Nil(t, like)
			} else if assert.NotNil(t, like) {
				assert.Equal(t, tt.expectedLike.ID, like.ID)
				assert.Equal(t, tt.expectedLike.Status, like.Status)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLikeRepository_Create_UniqueViolationIsConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "likes"`)).
		WithArgs(1, 2, "active", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Like{
		FromUserID: 1,
		ToUserID:   2,
		Status:     models.LikeStatusActive,
	})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeRepository_UpdateStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "likes" SET "status"=$1,"updated_at"=$2 WHERE id = $3`)).
		WithArgs("withdrawn", sqlmock.AnyArg(), 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateStatus(context.Background(), 4, models.LikeStatusWithdrawn)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
