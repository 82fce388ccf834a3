package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-gin-feed-api/internal/domain"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestPostRepo_FindByID_NotFoundReturnsNil(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "posts" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

	p, err := NewPostRepo(db).FindByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepo_List_CountsAllAndOrdersByCreatedAtDesc(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "posts"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(`SELECT \* FROM "posts" ORDER BY created_at desc,id desc LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "content", "image_url", "creator", "created_at", "updated_at"}).
			AddRow("p3", "Third post", "content three", "images/3.png", "u1", now.Add(-3*time.Minute), now).
			AddRow("p2", "Second post", "content two", "images/2.png", "u1", now.Add(-4*time.Minute), now))

	posts, total, err := NewPostRepo(db).List(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, posts, 2)
	assert.Equal(t, "p3", posts[0].ID)
	assert.Equal(t, "u1", posts[1].Creator)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepo_FindByImage(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "posts" WHERE image_url = \$1`).
		WithArgs("images/cat.png").
		WillReturnRows(sqlmock.NewRows([]string{"id", "image_url", "creator"}).
			AddRow("p1", "images/cat.png", "u1").
			AddRow("p2", "images/cat.png", "u2"))

	posts, err := NewPostRepo(db).FindByImage(context.Background(), "images/cat.png")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "u2", posts[1].Creator)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepo_FindByIDs_KeepsRequestedOrder(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "posts" WHERE id IN`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).
			AddRow("b", "Bravo post").
			AddRow("a", "Alpha post"))

	posts, err := NewPostRepo(db).FindByIDs(context.Background(), []string{"a", "gone", "b"})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "a", posts[0].ID)
	assert.Equal(t, "b", posts[1].ID)
}

func TestUserRepo_Create_TranslatesUniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`INSERT INTO "users"`).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email"`))

	err := NewUserRepo(db).Create(context.Background(), &domain.User{ID: "u1", Email: "a@b.com", Name: "A"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestUserRepo_FindByEmail_NotFoundReturnsNil(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	u, err := NewUserRepo(db).FindByEmail(context.Background(), "nobody@b.com")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUserRepo_AddPost_MissingUser(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := NewUserRepo(db).AddPost(context.Background(), "ghost", "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_AddPost_LocksRowInTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "post_ids"}).AddRow("u1", "a@b.com", `["p1"]`))
	mock.ExpectExec(`UPDATE "users" SET "post_ids"=\$1,"updated_at"=\$2 WHERE "id" = \$3`).
		WithArgs(`["p1","p2"]`, sqlmock.AnyArg(), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewUserRepo(db).AddPost(context.Background(), "u1", "p2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
