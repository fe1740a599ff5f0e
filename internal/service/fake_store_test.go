package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/Sayrikey1/Event-Booking-App/internal/model"
	"github.com/Sayrikey1/Event-Booking-App/internal/notify"
	"github.com/Sayrikey1/Event-Booking-App/internal/repository"
)

var errInjected = errors.New("injected store failure")

// fakeStore keeps inventory in maps. InTx holds one mutex for the whole
// transaction, which is stricter than a per-event row lock, and restores a
// snapshot when fn fails.
type fakeStore struct {
	mu      sync.Mutex
	users   map[uint64]*model.User
	events  map[uint64]*model.Event
	tickets map[uint64]*model.Ticket
	waiting map[uint64]*model.WaitingListEntry

	nextID uint64
	clock  time.Time

	// failOn names an InventoryTx method that returns errInjected.
	failOn string
	// failAfter lets that many calls of failOn succeed first.
	failAfter int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   map[uint64]*model.User{},
		events:  map[uint64]*model.Event{},
		tickets: map[uint64]*model.Ticket{},
		waiting: map[uint64]*model.WaitingListEntry{},
		nextID:  100,
		clock:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) id() uint64 { s.nextID++; return s.nextID }

func (s *fakeStore) tick() time.Time { s.clock = s.clock.Add(time.Microsecond); return s.clock }

func (s *fakeStore) addUser(id uint64, email string) {
	s.users[id] = &model.User{ID: id, Email: email, UserType: model.UserTypeUser}
}

func (s *fakeStore) addEvent(id, owner uint64, total int) {
	s.events[id] = &model.Event{
		ID: id, UserID: owner, Name: "Event", Date: time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC),
		TotalTickets: total, AvailableTickets: total, Status: model.EventStatusAllowingBookings,
	}
}

func (s *fakeStore) available(eventID uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[eventID].AvailableTickets
}

func (s *fakeStore) ticketsOf(userID, eventID uint64) []model.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Ticket
	for _, t := range s.tickets {
		if t.UserID == userID && t.EventID == eventID {
			out = append(out, *t)
		}
	}
	return out
}

func (s *fakeStore) queue(eventID uint64) []model.WaitingListEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedWaiting(eventID)
}

func (s *fakeStore) sortedWaiting(eventID uint64) []model.WaitingListEntry {
	var out []model.WaitingListEntry
	for _, w := range s.waiting {
		if w.EventID == eventID {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type snapshot struct {
	events  map[uint64]model.Event
	tickets map[uint64]model.Ticket
	waiting map[uint64]model.WaitingListEntry
}

func (s *fakeStore) snapshot() snapshot {
	snap := snapshot{
		events:  make(map[uint64]model.Event, len(s.events)),
		tickets: make(map[uint64]model.Ticket, len(s.tickets)),
		waiting: make(map[uint64]model.WaitingListEntry, len(s.waiting)),
	}
	for k, v := range s.events {
		snap.events[k] = *v
	}
	for k, v := range s.tickets {
		snap.tickets[k] = *v
	}
	for k, v := range s.waiting {
		snap.waiting[k] = *v
	}
	return snap
}

func (s *fakeStore) restore(snap snapshot) {
	s.events, s.tickets, s.waiting = map[uint64]*model.Event{}, map[uint64]*model.Ticket{}, map[uint64]*model.WaitingListEntry{}
	for k, v := range snap.events {
		v := v
		s.events[k] = &v
	}
	for k, v := range snap.tickets {
		v := v
		s.tickets[k] = &v
	}
	for k, v := range snap.waiting {
		v := v
		s.waiting[k] = &v
	}
}

func (s *fakeStore) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.InventoryTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(ctx, &fakeTx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *fakeStore) TicketForUser(_ context.Context, ticketID, userID uint64) (*model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[ticketID]
	if !ok || t.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeStore) TicketsByUser(_ context.Context, userID uint64) ([]model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Ticket{}
	for _, t := range s.tickets {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) WaitingByUser(_ context.Context, userID uint64) ([]model.WaitingListEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.WaitingListEntry{}
	for _, w := range s.waiting {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	return out, nil
}

// EventStore

func (s *fakeStore) Create(_ context.Context, ev *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.ID = s.id()
	ev.AvailableTickets = ev.TotalTickets
	cp := *ev
	s.events[ev.ID] = &cp
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id uint64) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ev
	return &cp, nil
}

func (s *fakeStore) List(context.Context) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Event{}
	for _, ev := range s.events {
		out = append(out, *ev)
	}
	return out, nil
}

func (s *fakeStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.events, id)
	for k, t := range s.tickets {
		if t.EventID == id {
			delete(s.tickets, k)
		}
	}
	for k, w := range s.waiting {
		if w.EventID == id {
			delete(s.waiting, k)
		}
	}
	return nil
}

type fakeTx struct{ s *fakeStore }

func (t *fakeTx) inject(method string) error {
	if t.s.failOn != method {
		return nil
	}
	if t.s.failAfter > 0 {
		t.s.failAfter--
		return nil
	}
	return errInjected
}

func (t *fakeTx) GetUser(_ context.Context, userID uint64) (*model.User, error) {
	u, ok := t.s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (t *fakeTx) LockEvent(_ context.Context, eventID uint64) (*model.Event, error) {
	if err := t.inject("LockEvent"); err != nil {
		return nil, err
	}
	ev, ok := t.s.events[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ev
	return &cp, nil
}

func (t *fakeTx) UpdateEvent(_ context.Context, ev *model.Event) error {
	if err := t.inject("UpdateEvent"); err != nil {
		return err
	}
	if ev.AvailableTickets < 0 || ev.AvailableTickets > ev.TotalTickets {
		return repository.ErrConflict
	}
	cp := *ev
	t.s.events[ev.ID] = &cp
	return nil
}

func (t *fakeTx) SetAvailable(_ context.Context, eventID uint64, available int) error {
	if err := t.inject("SetAvailable"); err != nil {
		return err
	}
	ev := t.s.events[eventID]
	if available < 0 || available > ev.TotalTickets {
		return repository.ErrConflict
	}
	ev.AvailableTickets = available
	return nil
}

func (t *fakeTx) CreateTickets(_ context.Context, eventID, userID uint64, n int) ([]model.Ticket, error) {
	if err := t.inject("CreateTickets"); err != nil {
		return nil, err
	}
	out := make([]model.Ticket, 0, n)
	for i := 0; i < n; i++ {
		tk := model.Ticket{ID: t.s.id(), Code: uuid.NewString(), EventID: eventID, UserID: userID, CreatedAt: t.s.tick()}
		t.s.tickets[tk.ID] = &tk
		out = append(out, tk)
	}
	return out, nil
}

func (t *fakeTx) GetTicket(_ context.Context, ticketID, userID uint64, _ bool) (*model.Ticket, error) {
	tk, ok := t.s.tickets[ticketID]
	if !ok || tk.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *tk
	return &cp, nil
}

func (t *fakeTx) DeleteTicket(_ context.Context, ticketID uint64) error {
	if _, ok := t.s.tickets[ticketID]; !ok {
		return repository.ErrNotFound
	}
	delete(t.s.tickets, ticketID)
	return nil
}

func (t *fakeTx) DeleteUserTickets(_ context.Context, eventID, userID uint64) (int, error) {
	n := 0
	for k, tk := range t.s.tickets {
		if tk.EventID == eventID && tk.UserID == userID {
			delete(t.s.tickets, k)
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) EnqueueWaiting(_ context.Context, eventID, userID uint64, count int) (*model.WaitingListEntry, error) {
	if err := t.inject("EnqueueWaiting"); err != nil {
		return nil, err
	}
	w := model.WaitingListEntry{ID: t.s.id(), EventID: eventID, UserID: userID, Count: count, CreatedAt: t.s.tick()}
	if u, ok := t.s.users[userID]; ok {
		w.UserEmail = u.Email
	}
	t.s.waiting[w.ID] = &w
	cp := w
	return &cp, nil
}

func (t *fakeTx) WaitingList(_ context.Context, eventID uint64) ([]model.WaitingListEntry, error) {
	return t.s.sortedWaiting(eventID), nil
}

func (t *fakeTx) GetWaiting(_ context.Context, id, userID uint64) (*model.WaitingListEntry, error) {
	w, ok := t.s.waiting[id]
	if !ok || w.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (t *fakeTx) DeleteWaiting(_ context.Context, id uint64) error {
	delete(t.s.waiting, id)
	return nil
}

func (t *fakeTx) SetWaitingCount(_ context.Context, id uint64, count int) error {
	if err := t.inject("SetWaitingCount"); err != nil {
		return err
	}
	t.s.waiting[id].Count = count
	return nil
}

// recordingNotifier captures what the services hand to the dispatcher.
type recordingNotifier struct {
	mu            sync.Mutex
	confirmations []notify.Confirmation
	mails         []notify.Message
}

func (n *recordingNotifier) BookingConfirmed(c notify.Confirmation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmations = append(n.confirmations, c)
}

func (n *recordingNotifier) Mail(m notify.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.mails = append(n.mails, m)
}

func (n *recordingNotifier) confirmationsFor(userID uint64) []notify.Confirmation {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notify.Confirmation
	for _, c := range n.confirmations {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out
}
