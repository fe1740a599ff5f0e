package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sayrikey1/Event-Booking-App/internal/config"
	"github.com/Sayrikey1/Event-Booking-App/internal/handler"
	"github.com/Sayrikey1/Event-Booking-App/internal/model"
	"github.com/Sayrikey1/Event-Booking-App/internal/observability"
	"github.com/Sayrikey1/Event-Booking-App/internal/service"
	"github.com/Sayrikey1/Event-Booking-App/internal/utils"
)

const testSecret = "router-test-secret"

type fakeBookings struct {
	handler.Bookings
	calls []string
	err   error
}

func (f *fakeBookings) CreateBooking(context.Context, uint64, uint64, int) (*service.BookingResult, error) {
	f.calls = append(f.calls, "create")
	if f.err != nil {
		return nil, f.err
	}
	return &service.BookingResult{Status: service.BookingConfirmed, Message: "ok", Tickets: []model.Ticket{{ID: 1}}}, nil
}

func (f *fakeBookings) GetBooking(_ context.Context, _, id uint64) (*model.Ticket, error) {
	f.calls = append(f.calls, "get")
	return &model.Ticket{ID: id}, nil
}

func (f *fakeBookings) GetAllBookings(context.Context, uint64) ([]model.Ticket, error) {
	f.calls = append(f.calls, "list")
	return nil, nil
}

func (f *fakeBookings) ListWaitlist(context.Context, uint64) ([]model.WaitingListEntry, error) {
	f.calls = append(f.calls, "waitlist")
	return nil, nil
}

func (f *fakeBookings) DeleteBooking(context.Context, uint64, uint64) error {
	f.calls = append(f.calls, "delete")
	return nil
}

func (f *fakeBookings) DeleteAllBookings(context.Context, uint64, uint64) (int, error) {
	f.calls = append(f.calls, "delete_all")
	return 1, nil
}

func (f *fakeBookings) CancelWaitlist(context.Context, uint64, uint64) error {
	f.calls = append(f.calls, "cancel_waitlist")
	return nil
}

type fakeEvents struct{ handler.Events }

func (fakeEvents) ListEvents(context.Context) ([]model.Event, error) { return []model.Event{{ID: 1}}, nil }

func (fakeEvents) UpdateEvent(_ context.Context, _, id uint64, _ model.EventPatch) (*model.Event, error) {
	return &model.Event{ID: id}, nil
}

type fakeUsers struct{ handler.Users }

// commandLog answers every redis command locally and records its name.
type commandLog struct {
	mu    sync.Mutex
	names []string
}

func (l *commandLog) DialHook(next redis.DialHook) redis.DialHook { return next }

func (l *commandLog) ProcessHook(redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		l.mu.Lock()
		l.names = append(l.names, strings.ToLower(cmd.Name()))
		l.mu.Unlock()
		if cmd.Name() == "get" {
			cmd.SetErr(redis.Nil)
			return redis.Nil
		}
		return nil
	}
}

func (l *commandLog) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (l *commandLog) reset() {
	l.mu.Lock()
	l.names = nil
	l.mu.Unlock()
}

func (l *commandLog) has(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, n := range l.names {
		if n == name {
			return true
		}
	}
	return false
}

func newServer(t *testing.T, rdb *redis.Client) (*echo.Echo, *fakeBookings) {
	t.Helper()
	log := observability.Discard()
	b := &fakeBookings{}
	e := New(Deps{
		Log:       log,
		JWTSecret: testSecret,
		RateLimit: config.RateLimitConfig{},
		Cache: config.CacheConfig{
			Enabled:     rdb != nil,
			Methods:     map[string]bool{http.MethodGet: true},
			TTL:         time.Second,
			KeyStrategy: "route",
			Prefix:      "cache:events",
		},
		Redis:    rdb,
		Auth:     handler.NewAuthHandler(fakeUsers{}, log),
		Events:   handler.NewEventHandler(fakeEvents{}, log),
		Bookings: handler.NewBookingHandler(b, log),
	})
	return e, b
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, 7, role, "user@example.com", 15)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func call(e *echo.Echo, method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBookingRoutesRequireToken(t *testing.T) {
	e, b := newServer(t, nil)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/booking"},
		{http.MethodGet, "/api/booking/waitlist"},
		{http.MethodGet, "/api/booking/3"},
		{http.MethodPost, "/api/booking/create"},
		{http.MethodDelete, "/api/booking/delete/3"},
		{http.MethodDelete, "/api/booking/event/10"},
		{http.MethodDelete, "/api/booking/waitlist/4"},
	}
	for _, r := range routes {
		rec := call(e, r.method, r.path, "", `{"event_id":10,"ticket_count":1}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, r.method+" "+r.path)
		assert.Contains(t, rec.Body.String(), `"message"`)

		rec = call(e, r.method, r.path, "Bearer not-a-jwt", `{"event_id":10,"ticket_count":1}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, r.method+" "+r.path)
	}
	assert.Empty(t, b.calls)
}

func TestAdminRouteNeedsAdminRole(t *testing.T) {
	e, _ := newServer(t, nil)
	assert.Equal(t, http.StatusForbidden, call(e, http.MethodGet, "/api/users", bearer(t, model.UserTypeUser), "").Code)
}

func TestWaitlistRouteIsNotABookingID(t *testing.T) {
	e, b := newServer(t, nil)
	auth := bearer(t, model.UserTypeUser)

	require.Equal(t, http.StatusOK, call(e, http.MethodGet, "/api/booking/waitlist", auth, "").Code)
	require.Equal(t, http.StatusOK, call(e, http.MethodGet, "/api/booking/5", auth, "").Code)
	assert.Equal(t, []string{"waitlist", "get"}, b.calls)
}

func TestOperationalRoutes(t *testing.T) {
	e, _ := newServer(t, nil)
	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/metrics", "", "").Code)
}

func TestSeatMovingRoutesPurgeEventCache(t *testing.T) {
	cmds := &commandLog{}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	rdb.AddHook(cmds)
	t.Cleanup(func() { _ = rdb.Close() })

	e, b := newServer(t, rdb)
	auth := bearer(t, model.UserTypeUser)

	purging := []struct{ method, path, body string }{
		{http.MethodPost, "/api/booking/create", `{"event_id":10,"ticket_count":1}`},
		{http.MethodDelete, "/api/booking/delete/3", ""},
		{http.MethodDelete, "/api/booking/event/10", ""},
		{http.MethodPatch, "/api/event/update", `{"id":10,"total_tickets":20}`},
	}
	for _, r := range purging {
		cmds.reset()
		rec := call(e, r.method, r.path, auth, r.body)
		require.Less(t, rec.Code, http.StatusBadRequest, r.path)
		assert.True(t, cmds.has("scan"), "%s %s should purge the event cache", r.method, r.path)
	}

	readOnly := []struct{ method, path string }{
		{http.MethodGet, "/api/booking"},
		{http.MethodGet, "/api/booking/waitlist"},
		{http.MethodDelete, "/api/booking/waitlist/4"},
	}
	for _, r := range readOnly {
		cmds.reset()
		call(e, r.method, r.path, auth, "")
		assert.False(t, cmds.has("scan"), r.path)
		assert.False(t, cmds.has("get"), "%s must not be served from the shared cache", r.path)
	}

	cmds.reset()
	require.Equal(t, http.StatusOK, call(e, http.MethodGet, "/api/event", "", "").Code)
	assert.True(t, cmds.has("get"))
	assert.True(t, cmds.has("setex"))

	cmds.reset()
	b.err = &service.Error{Kind: service.ErrConflict, Message: "closed"}
	require.Equal(t, http.StatusConflict, call(e, http.MethodPost, "/api/booking/create", auth, `{"event_id":10,"ticket_count":1}`).Code)
	assert.False(t, cmds.has("scan"))
}
