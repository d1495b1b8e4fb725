package dto

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/notification"
)

// EventDTO represents a calendar event in API responses
type EventDTO struct {
	ID          uint64         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Date        time.Time      `json:"date"`
	Time        string         `json:"time"`
	Project     *ProjectRefDTO `json:"project"`
	Creator     *UserRefDTO    `json:"createdBy"`
	Attendees   []UserRefDTO   `json:"attendees"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// CreateEventRequest is the body of an event creation
type CreateEventRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Date        string `json:"date" binding:"required"`
	Time        string `json:"time"`
	Project     ID     `json:"project"`
}

// CreateEventResponse is the created event plus the notification outcome
type CreateEventResponse struct {
	Event              EventDTO            `json:"event"`
	Message            string              `json:"message"`
	EmailNotifications notification.Report `json:"emailNotifications"`
}

// ToEventDTO converts an Event model to EventDTO
func ToEventDTO(event models.Event) EventDTO {
	attendees := make([]UserRefDTO, 0, len(event.Attendees))
	for _, a := range event.Attendees {
		if ref := toUserRef(&a.User); ref != nil {
			attendees = append(attendees, *ref)
		}
	}

	return EventDTO{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Description,
		Date:        event.Date,
		Time:        event.Time,
		Project:     toProjectRef(event.Project),
		Creator:     toUserRef(&event.Creator),
		Attendees:   attendees,
		CreatedAt:   event.CreatedAt,
	}
}

// ToEventDTOs converts a slice of events
func ToEventDTOs(events []models.Event) []EventDTO {
	out := make([]EventDTO, len(events))
	for i, e := range events {
		out[i] = ToEventDTO(e)
	}
	return out
}

// NewCreateEventResponse builds the creation response.
func NewCreateEventResponse(event models.Event, report notification.Report) CreateEventResponse {
	if report.Details == nil {
		report.Details = []notification.Delivery{}
	}
	return CreateEventResponse{
		Event:              ToEventDTO(event),
		Message:            "Event created successfully",
		EmailNotifications: report,
	}
}
