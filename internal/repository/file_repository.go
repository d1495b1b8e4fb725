package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// GormFileRepository is a GORM implementation of FileRepository
type GormFileRepository struct {
	db *gorm.DB
}

// NewFileRepository creates a new FileRepository
func NewFileRepository(db *gorm.DB) FileRepository {
	return &GormFileRepository{db: db}
}

// Create stores file metadata
func (r *GormFileRepository) Create(ctx context.Context, file *models.File) error {
	if err := r.db.WithContext(ctx).Omit("Uploader").Create(file).Error; err != nil {
		return translate(err)
	}
	return r.db.WithContext(ctx).Preload("Uploader").First(file, file.ID).Error
}

// List lists file metadata newest first with the uploader loaded. A nil
// params returns every file.
func (r *GormFileRepository) List(ctx context.Context, params *utils.PaginationParams) ([]models.File, error) {
	query := r.db.WithContext(ctx).
		Preload("Uploader").
		Order("created_at DESC, id DESC")
	if params != nil {
		query = query.Scopes(database.Paginate(*params))
	}

	var files []models.File
	if err := query.Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}
