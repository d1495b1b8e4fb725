package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yukikurage/project-management-api/internal/models"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).
		Omit("Project", "Assignee", "Creator", "Comments").
		Create(task).Error
}

// FindByID finds a task by ID with relations and ordered comments loaded
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64) (*models.Task, error) {
	var task models.Task
	if err := withTaskRelations(r.db.WithContext(ctx)).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks newest first with relations loaded
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	var tasks []models.Task

	query := applyTaskFilter(r.db.WithContext(ctx).Model(&models.Task{}), filter)
	if err := withTaskRelations(query).
		Order("tasks.created_at DESC, tasks.id DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}

	return tasks, nil
}

// Count counts tasks matching the filter
func (r *GormTaskRepository) Count(ctx context.Context, filter TaskFilter) (int64, error) {
	var count int64
	err := applyTaskFilter(r.db.WithContext(ctx).Model(&models.Task{}), filter).Count(&count).Error
	return count, err
}

// CountByStatus groups the matching tasks by status
func (r *GormTaskRepository) CountByStatus(ctx context.Context, filter TaskFilter) ([]StatusCount, error) {
	var rows []StatusCount
	err := applyTaskFilter(r.db.WithContext(ctx).Model(&models.Task{}), filter).
		Select("tasks.status AS status, COUNT(*) AS count").
		Group("tasks.status").
		Order("tasks.status ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves every column of the task
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).
		Omit("Project", "Assignee", "Creator", "Comments").
		Save(task).Error
}

// Delete removes the task together with its comments
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Task{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// AddComment appends a comment to a task
func (r *GormTaskRepository) AddComment(ctx context.Context, comment *models.TaskComment) error {
	return r.db.WithContext(ctx).Omit("Author").Create(comment).Error
}

func applyTaskFilter(query *gorm.DB, filter TaskFilter) *gorm.DB {
	if filter.Access != nil {
		if len(filter.Access.ProjectIDs) > 0 {
			query = query.Where("tasks.assignee_id = ? OR tasks.project_id IN ?",
				filter.Access.UserID, filter.Access.ProjectIDs)
		} else {
			query = query.Where("tasks.assignee_id = ?", filter.Access.UserID)
		}
	}
	if filter.ProjectID != nil {
		query = query.Where("tasks.project_id = ?", *filter.ProjectID)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	return query
}

func withTaskRelations(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Project").
		Preload("Assignee").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("task_comments.created_at ASC, task_comments.id ASC")
		}).
		Preload("Comments.Author")
}
