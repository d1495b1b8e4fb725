package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/notification"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/repository"
)

// EventService handles calendar events
type EventService struct {
	eventRepo   repository.EventRepository
	projectRepo repository.ProjectRepository
	policy      *policy.Policy
	dispatcher  Dispatcher
	frontendURL string
	log         zerolog.Logger

	renderEvent func(to string, data notification.EventCreatedData) (notification.Message, error)
}

// NewEventService creates a new EventService
func NewEventService(
	eventRepo repository.EventRepository,
	projectRepo repository.ProjectRepository,
	pol *policy.Policy,
	dispatcher Dispatcher,
	frontendURL string,
	log zerolog.Logger,
) *EventService {
	return &EventService{
		eventRepo:   eventRepo,
		projectRepo: projectRepo,
		policy:      pol,
		dispatcher:  dispatcher,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log,

		renderEvent: notification.EventCreated,
	}
}

// CreateEventInput represents input for creating an event
type CreateEventInput struct {
	Title       string
	Description string
	Date        *time.Time
	Time        string
	ProjectID   *uint64
}

// CreateEventResult is the created event plus the notification outcome.
type CreateEventResult struct {
	Event         *models.Event
	Notifications notification.Report
}

// CreateEvent creates an event. When it belongs to a project, the project's
// current members become its attendees. The attendee list is a copy and
// does not follow later membership changes.
func (s *EventService) CreateEvent(ctx context.Context, actor policy.Actor, input CreateEventInput) (*CreateEventResult, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.Date == nil || input.Date.IsZero() {
		return nil, ErrDateRequired
	}

	var members []models.User
	if input.ProjectID != nil {
		project, err := s.projectRepo.FindByID(ctx, *input.ProjectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProjectNotFound
			}
			return nil, fmt.Errorf("failed to find project: %w", err)
		}
		for _, m := range project.Members {
			members = append(members, m.User)
		}
	}

	attendeeIDs := make([]uint64, len(members))
	for i, m := range members {
		attendeeIDs[i] = m.ID
	}

	event := &models.Event{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Date:        *input.Date,
		Time:        strings.TrimSpace(input.Time),
		ProjectID:   input.ProjectID,
		CreatorID:   actor.ID,
	}
	if err := s.eventRepo.Create(ctx, event, attendeeIDs); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	messages, unrendered := s.eventMessages(actor, event, members)
	report := s.dispatcher.Dispatch(ctx, messages)
	report.Include(unrendered...)
	if report.Failed > 0 {
		s.log.Warn().
			Uint64("event_id", event.ID).
			Int("failed", report.Failed).
			Int("total", report.Total).
			Msg("some event notifications failed")
	}

	return &CreateEventResult{Event: event, Notifications: report}, nil
}

// eventMessages renders one email per attendee other than the actor.
// Attendees whose email could not be rendered are returned as failures.
func (s *EventService) eventMessages(actor policy.Actor, event *models.Event, attendees []models.User) ([]notification.Message, []notification.Delivery) {
	var unrendered []notification.Delivery
	messages := make([]notification.Message, 0, len(attendees))
	for _, attendee := range attendees {
		if attendee.ID == actor.ID {
			continue
		}

		msg, err := s.renderEvent(attendee.Email, notification.EventCreatedData{
			Recipient:   displayName(&attendee),
			Actor:       actor.DisplayName(),
			Title:       event.Title,
			Description: event.Description,
			Date:        event.Date,
			Time:        event.Time,
			Link:        s.frontendURL + "/calendar.html",
		})
		if err != nil {
			s.log.Error().Err(err).Str("to", attendee.Email).Msg("failed to render event email")
			unrendered = append(unrendered, notification.Failure(attendee.Email, err))
			continue
		}
		messages = append(messages, msg)
	}
	return messages, unrendered
}

// ListEvents returns the events the actor created or attends, earliest first.
func (s *EventService) ListEvents(ctx context.Context, actor policy.Actor) ([]models.Event, error) {
	events, err := s.eventRepo.ListForUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// DeleteEvent deletes an event. Only its creator may do so.
func (s *EventService) DeleteEvent(ctx context.Context, actor policy.Actor, id uint64) error {
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to find event: %w", err)
	}

	if !s.policy.CanPerform(actor, policy.EventDelete, policy.Resource{CreatorID: event.CreatorID}) {
		return ErrEventForbidden
	}

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}
