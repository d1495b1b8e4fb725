package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	user.EmailKey = models.NormalizeEmail(user.Email)
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email, ignoring case
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("email_key = ?", models.NormalizeEmail(email)).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmails returns the users whose normalized email is in keys
func (r *GormUserRepository) FindByEmails(ctx context.Context, keys []string) ([]models.User, error) {
	if len(keys) == 0 {
		return []models.User{}, nil
	}

	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("email_key IN ?", keys).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// FindByIDs returns the users with the given IDs
func (r *GormUserRepository) FindByIDs(ctx context.Context, ids []uint64) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// FindByResetTokenHash finds the user holding an unexpired reset token
func (r *GormUserRepository) FindByResetTokenHash(ctx context.Context, hash string, now time.Time) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("reset_token_hash = ? AND reset_token_expires_at > ?", hash, now).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update saves every column of the user
func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	user.EmailKey = models.NormalizeEmail(user.Email)
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

// Search matches a case-insensitive substring of email or name
func (r *GormUserRepository) Search(ctx context.Context, term string, params utils.PaginationParams) ([]models.User, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(term))) + "%"

	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("email_key LIKE ? ESCAPE '"+likeEscape+"' OR LOWER(name) LIKE ? ESCAPE '"+likeEscape+"'", pattern, pattern).
		Order("email_key ASC").
		Scopes(database.Paginate(params)).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
