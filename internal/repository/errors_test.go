package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yukikurage/project-management-api/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	return db, mock
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users`")).
		WillReturnError(&gomysql.MySQLError{
			Number:  1062,
			Message: "Duplicate entry 'alice@example.com' for key 'users.idx_users_email_key'",
		})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{
		Email:        "Alice@Example.com",
		PasswordHash: "hash",
		Role:         models.RoleTeamMember,
	})

	require.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProjectDuplicateTitle(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `projects`")).
		WillReturnError(&gomysql.MySQLError{
			Number:  1062,
			Message: "Duplicate entry 'apollo' for key 'projects.idx_projects_title_key'",
		})
	mock.ExpectRollback()

	project := &models.Project{Title: "Apollo", CreatorID: 1}
	err := repo.Create(context.Background(), project, []uint64{2, 3})

	require.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, "apollo", project.TitleKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateLeavesOtherErrorsAlone(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	boom := errors.New("connection reset")
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users`")).WillReturnError(boom)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{Email: "bob@example.com", PasswordHash: "hash"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicate)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		dup  bool
	}{
		{name: "nil", err: nil},
		{name: "gorm duplicated key", err: gorm.ErrDuplicatedKey, dup: true},
		{name: "sqlite unique", err: errors.New("UNIQUE constraint failed: users.email_key"), dup: true},
		{name: "postgres unique", err: errors.New(`ERROR: duplicate key value violates unique constraint "idx_projects_title_key"`), dup: true},
		{name: "pg unique violation", err: &pgconn.PgError{Code: pgerrcode.UniqueViolation}, dup: true},
		{name: "pg other", err: &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}},
		{name: "mysql duplicate entry", err: fmt.Errorf("insert: %w", &gomysql.MySQLError{Number: 1062}), dup: true},
		{name: "mysql other", err: &gomysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}},
		{name: "not found", err: gorm.ErrRecordNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.err)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.Equal(t, tt.dup, errors.Is(got, ErrDuplicate))
		})
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "100!%", escapeLike("100%"))
	assert.Equal(t, "a!_b", escapeLike("a_b"))
	assert.Equal(t, "wow!!", escapeLike("wow!"))
	assert.Equal(t, "plain", escapeLike("plain"))
}
