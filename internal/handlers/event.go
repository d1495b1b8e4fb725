package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/project-management-api/internal/dto"
	"github.com/yukikurage/project-management-api/internal/services"
)

// EventHandler serves the calendar event endpoints.
type EventHandler struct {
	eventService *services.EventService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

// ListEvents returns the events the current user created or attends.
func (h *EventHandler) ListEvents(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	events, err := h.eventService.ListEvents(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToEventDTOs(events))
}

// CreateEvent creates an event and notifies its attendees.
func (h *EventHandler) CreateEvent(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CreateEventRequest
	if !bindJSON(c, &req) {
		return
	}

	date, err := dto.ParseDate(req.Date)
	if err != nil {
		respondError(c, &dto.FieldError{Field: "date"})
		return
	}

	result, err := h.eventService.CreateEvent(c.Request.Context(), actor, services.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		Time:        req.Time,
		ProjectID:   req.Project.Ptr(),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewCreateEventResponse(*result.Event, result.Notifications))
}

// DeleteEvent deletes an event created by the current user.
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.eventService.DeleteEvent(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Event deleted successfully"})
}
