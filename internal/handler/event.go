package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Sayrikey1/Event-Booking-App/internal/middleware"
	"github.com/Sayrikey1/Event-Booking-App/internal/model"
	"github.com/Sayrikey1/Event-Booking-App/internal/service"
)

// Events is the surface of service.EventService.
type Events interface {
	CreateEvent(ctx context.Context, ownerID uint64, in service.CreateEventInput) (*model.Event, error)
	GetEvent(ctx context.Context, id uint64) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	UpdateEvent(ctx context.Context, callerID, eventID uint64, patch model.EventPatch) (*model.Event, error)
	DeleteEvent(ctx context.Context, callerID, eventID uint64) error
}

type EventHandler struct {
	Events Events
	Log    logrus.FieldLogger
}

func NewEventHandler(e Events, log logrus.FieldLogger) *EventHandler {
	return &EventHandler{Events: e, Log: log}
}

type createEventReq struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Date         time.Time `json:"date"`
	Duration     int       `json:"duration"`
	Location     string    `json:"location"`
	TotalTickets int       `json:"total_tickets"`
	TicketPrice  float64   `json:"ticket_price"`
}

type updateEventReq struct {
	ID uint64 `json:"id"`
	model.EventPatch
}

// Create handles POST /api/event/create.
func (h *EventHandler) Create(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "invalid body")
	}
	ev, err := h.Events.CreateEvent(c.Request().Context(), uid, service.CreateEventInput(req))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Event created successfully", "id": ev.ID})
}

// Get handles GET /api/event/:id.
func (h *EventHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return message(c, http.StatusBadRequest, "invalid event id")
	}
	ev, err := h.Events.GetEvent(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Event retrieved successfully", "event": ev})
}

// List handles GET /api/event.
func (h *EventHandler) List(c echo.Context) error {
	events, err := h.Events.ListEvents(c.Request().Context())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Events retrieved successfully", "events": events})
}

// Update handles PATCH /api/event/update.
func (h *EventHandler) Update(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}
	var req updateEventReq
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "invalid body")
	}
	if req.ID == 0 {
		return message(c, http.StatusBadRequest, "id is required")
	}
	ev, err := h.Events.UpdateEvent(c.Request().Context(), uid, req.ID, req.EventPatch)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Event updated successfully", "event": ev})
}

// Delete handles DELETE /api/event/delete/:id.
func (h *EventHandler) Delete(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return message(c, http.StatusBadRequest, "invalid event id")
	}
	if err := h.Events.DeleteEvent(c.Request().Context(), uid, id); err != nil {
		return writeError(c, h.Log, err)
	}
	return message(c, http.StatusOK, "Event deleted successfully")
}
