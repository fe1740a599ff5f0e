package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Sayrikey1/Event-Booking-App/internal/middleware"
	"github.com/Sayrikey1/Event-Booking-App/internal/model"
	"github.com/Sayrikey1/Event-Booking-App/internal/service"
)

// Bookings is the booking surface of service.BookingService.
type Bookings interface {
	CreateBooking(ctx context.Context, userID, eventID uint64, count int) (*service.BookingResult, error)
	GetBooking(ctx context.Context, userID, ticketID uint64) (*model.Ticket, error)
	GetAllBookings(ctx context.Context, userID uint64) ([]model.Ticket, error)
	DeleteBooking(ctx context.Context, userID, ticketID uint64) error
	DeleteAllBookings(ctx context.Context, userID, eventID uint64) (int, error)
	ListWaitlist(ctx context.Context, userID uint64) ([]model.WaitingListEntry, error)
	CancelWaitlist(ctx context.Context, userID, entryID uint64) error
}

type BookingHandler struct {
	Bookings Bookings
	Log      logrus.FieldLogger
}

func NewBookingHandler(b Bookings, log logrus.FieldLogger) *BookingHandler {
	return &BookingHandler{Bookings: b, Log: log}
}

type createBookingReq struct {
	EventID     uint64 `json:"event_id"`
	TicketCount int    `json:"ticket_count"`
}

// Create handles POST /api/booking/create. Both a full allocation and a
// waiting-list placement answer 201.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "invalid body")
	}
	if req.EventID == 0 {
		return message(c, http.StatusBadRequest, "event_id is required")
	}

	res, err := h.Bookings.CreateBooking(c.Request().Context(), uid, req.EventID, req.TicketCount)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if res.Status == service.BookingWaitlisted {
		body := echo.Map{"message": res.Message, "status": res.Status}
		if res.Waitlist != nil {
			body["waitlist_id"] = res.Waitlist.ID
		}
		return c.JSON(http.StatusCreated, body)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": res.Message,
		"status":  res.Status,
		"id":      res.TicketIDs(),
	})
}

// List handles GET /api/booking.
func (h *BookingHandler) List(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}
	tickets, err := h.Bookings.GetAllBookings(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Bookings retrieved successfully", "bookings": tickets})
}

// Get handles GET /api/booking/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return message(c, http.StatusBadRequest, "invalid booking id")
	}
	t, err := h.Bookings.GetBooking(c.Request().Context(), uid, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Booking retrieved successfully", "id": t.ID, "booking": t})
}

// Delete handles DELETE /api/booking/delete/:id.
func (h *BookingHandler) Delete(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return message(c, http.StatusBadRequest, "invalid booking id")
	}
	if err := h.Bookings.DeleteBooking(c.Request().Context(), uid, id); err != nil {
		return writeError(c, h.Log, err)
	}
	return message(c, http.StatusOK, "Booking deleted successfully")
}

// DeleteForEvent handles DELETE /api/booking/event/:event_id.
func (h *BookingHandler) DeleteForEvent(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}
	eventID, ok := pathID(c, "event_id")
	if !ok {
		return message(c, http.StatusBadRequest, "invalid event id")
	}
	n, err := h.Bookings.DeleteAllBookings(c.Request().Context(), uid, eventID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Bookings deleted successfully", "deleted": n})
}

// Waitlist handles GET /api/booking/waitlist.
func (h *BookingHandler) Waitlist(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}
	entries, err := h.Bookings.ListWaitlist(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Waiting list retrieved successfully", "waitlist": entries})
}

// CancelWaitlist handles DELETE /api/booking/waitlist/:id.
func (h *BookingHandler) CancelWaitlist(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return message(c, http.StatusBadRequest, "invalid waiting list id")
	}
	if err := h.Bookings.CancelWaitlist(c.Request().Context(), uid, id); err != nil {
		return writeError(c, h.Log, err)
	}
	return message(c, http.StatusOK, "Removed from the waiting list")
}
