package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yukikurage/project-management-api/internal/models"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create inserts the project and its ordered member set atomically
func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project, memberIDs []uint64) error {
	project.TitleKey = models.TitleKey(project.Title)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members", "Creator").Create(project).Error; err != nil {
			return err
		}
		return insertMembers(tx, project.ID, memberIDs)
	})
	if err != nil {
		return translate(err)
	}

	return r.loadMembers(ctx, project)
}

// FindByID finds a project with its members loaded
func (r *GormProjectRepository) FindByID(ctx context.Context, id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.withMembers(r.db.WithContext(ctx)).First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// List retrieves projects with members loaded, newest first
func (r *GormProjectRepository) List(ctx context.Context, filter ProjectFilter) ([]models.Project, error) {
	var projects []models.Project
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.Project{}), filter)

	if err := r.withMembers(query).
		Order("projects.created_at DESC, projects.id DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Count counts projects matching the filter
func (r *GormProjectRepository) Count(ctx context.Context, filter ProjectFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.Project{}), filter).Count(&count).Error
	return count, err
}

// ListIDsByMember lists the IDs of projects the user belongs to
func (r *GormProjectRepository) ListIDsByMember(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	if err := r.db.WithContext(ctx).
		Model(&models.ProjectMember{}).
		Where("user_id = ?", userID).
		Pluck("project_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// IsMember reports whether the user belongs to the project
func (r *GormProjectRepository) IsMember(ctx context.Context, projectID, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}

// Update saves the project; a non-nil memberIDs replaces the member set
func (r *GormProjectRepository) Update(ctx context.Context, project *models.Project, memberIDs *[]uint64) error {
	project.TitleKey = models.TitleKey(project.Title)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members", "Creator").Save(project).Error; err != nil {
			return err
		}
		if memberIDs == nil {
			return nil
		}

		if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		return insertMembers(tx, project.ID, *memberIDs)
	})
	if err != nil {
		return translate(err)
	}

	return r.loadMembers(ctx, project)
}

// Delete removes the project and its members and detaches tasks and events
func (r *GormProjectRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).
			Where("project_id = ?", id).
			Update("project_id", nil).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Event{}).
			Where("project_id = ?", id).
			Update("project_id", nil).Error; err != nil {
			return err
		}

		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Project{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}

func (r *GormProjectRepository) applyFilter(query *gorm.DB, filter ProjectFilter) *gorm.DB {
	if filter.MemberID != nil {
		memberSubQuery := r.db.Model(&models.ProjectMember{}).
			Select("1").
			Where("project_members.project_id = projects.id").
			Where("project_members.user_id = ?", *filter.MemberID)
		query = query.Where("EXISTS (?)", memberSubQuery)
	}
	return query
}

func (r *GormProjectRepository) withMembers(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("project_members.position ASC")
		}).
		Preload("Members.User")
}

func (r *GormProjectRepository) loadMembers(ctx context.Context, project *models.Project) error {
	loaded, err := r.FindByID(ctx, project.ID)
	if err != nil {
		return err
	}
	project.Members = loaded.Members
	return nil
}

func insertMembers(tx *gorm.DB, projectID uint64, memberIDs []uint64) error {
	if len(memberIDs) == 0 {
		return nil
	}

	members := make([]models.ProjectMember, len(memberIDs))
	for i, userID := range memberIDs {
		members[i] = models.ProjectMember{
			ProjectID: projectID,
			UserID:    userID,
			Position:  i,
		}
	}

	return tx.Omit("User").Create(&members).Error
}
