package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yukikurage/project-management-api/internal/models"
)

// GormEventRepository is a GORM implementation of EventRepository
type GormEventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &GormEventRepository{db: db}
}

// Create inserts the event and its attendee snapshot atomically
func (r *GormEventRepository) Create(ctx context.Context, event *models.Event, attendeeIDs []uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Project", "Creator", "Attendees").Create(event).Error; err != nil {
			return err
		}
		if len(attendeeIDs) == 0 {
			return nil
		}

		attendees := make([]models.EventAttendee, len(attendeeIDs))
		for i, userID := range attendeeIDs {
			attendees[i] = models.EventAttendee{EventID: event.ID, UserID: userID}
		}
		return tx.Omit("User").Create(&attendees).Error
	})
	if err != nil {
		return err
	}

	loaded, err := r.FindByID(ctx, event.ID)
	if err != nil {
		return err
	}
	*event = *loaded
	return nil
}

// FindByID finds an event with relations loaded
func (r *GormEventRepository) FindByID(ctx context.Context, id uint64) (*models.Event, error) {
	var event models.Event
	if err := withEventRelations(r.db.WithContext(ctx)).First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// ListForUser lists events the user created or attends, by date ascending
func (r *GormEventRepository) ListForUser(ctx context.Context, userID uint64) ([]models.Event, error) {
	attendeeSubQuery := r.db.Model(&models.EventAttendee{}).
		Select("1").
		Where("event_attendees.event_id = events.id").
		Where("event_attendees.user_id = ?", userID)

	var events []models.Event
	if err := withEventRelations(r.db.WithContext(ctx).Model(&models.Event{})).
		Where("events.creator_id = ? OR EXISTS (?)", userID, attendeeSubQuery).
		Order("events.date ASC, events.id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Delete removes the event and its attendees
func (r *GormEventRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.EventAttendee{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Event{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func withEventRelations(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Project").
		Preload("Creator").
		Preload("Attendees.User")
}
