// Package memory implements repository.Store in process memory. It backs the
// test suite and the STORAGE=memory development mode.
//
// WithEventLock serializes callers per event with a dedicated mutex and
// stages every write made inside the callback; staged writes are applied in
// one step after the callback succeeds and discarded otherwise.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/repository"
)

type tables struct {
	users      map[int64]model.User
	categories map[int64]model.Category
	events     map[int64]model.Event
	requests   map[int64]model.ParticipationRequest
}

func newTables() *tables {
	return &tables{
		users:      make(map[int64]model.User),
		categories: make(map[int64]model.Category),
		events:     make(map[int64]model.Event),
		requests:   make(map[int64]model.ParticipationRequest),
	}
}

// Store is an in-memory repository.Store. The zero value is not usable; call New.
type Store struct {
	*view

	mu   sync.RWMutex
	data *tables
	seq  atomic.Int64

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// New returns an empty Store.
func New() *Store {
	s := &Store{data: newTables(), locks: make(map[int64]*sync.Mutex)}
	s.view = &view{s: s}
	return s
}

func (s *Store) nextID() int64 {
	return s.seq.Add(1)
}

func (s *Store) eventLock(id int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// WithEventLock implements repository.Store.
func (s *Store) WithEventLock(ctx context.Context, eventID int64, fn func(q repository.Querier, ev *model.Event) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := s.eventLock(eventID)
	l.Lock()
	defer l.Unlock()

	tx := &view{s: s, overlay: newTables()}
	ev, err := tx.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if err := fn(tx, ev); err != nil {
		return err
	}
	return s.commit(tx.overlay)
}

// commit applies staged writes after re-checking uniqueness against writes
// committed by other callers in the meantime.
func (s *Store) commit(o *tables) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := reader{base: s.data, overlay: o}
	for _, req := range o.requests {
		if r.activeDuplicate(req) {
			return repository.ErrDuplicate
		}
	}
	for _, u := range o.users {
		if r.emailTaken(u) {
			return repository.ErrDuplicate
		}
	}
	for _, c := range o.categories {
		if r.categoryNameTaken(c) {
			return repository.ErrDuplicate
		}
	}

	for id, u := range o.users {
		s.data.users[id] = u
	}
	for id, c := range o.categories {
		s.data.categories[id] = c
	}
	for id, e := range o.events {
		s.data.events[id] = e
	}
	for id, req := range o.requests {
		s.data.requests[id] = req
	}
	return nil
}

// reader resolves rows through the overlay first, then the committed data.
type reader struct {
	base    *tables
	overlay *tables
}

func lookup[T any](r reader, pick func(*tables) map[int64]T, id int64) (T, bool) {
	if r.overlay != nil {
		if v, ok := pick(r.overlay)[id]; ok {
			return v, true
		}
	}
	v, ok := pick(r.base)[id]
	return v, ok
}

func each[T any](r reader, pick func(*tables) map[int64]T, fn func(T)) {
	var staged map[int64]T
	if r.overlay != nil {
		staged = pick(r.overlay)
		for _, v := range staged {
			fn(v)
		}
	}
	for id, v := range pick(r.base) {
		if _, shadowed := staged[id]; !shadowed {
			fn(v)
		}
	}
}

func usersOf(t *tables) map[int64]model.User { return t.users }
func categoriesOf(t *tables) map[int64]model.Category { return t.categories }
func eventsOf(t *tables) map[int64]model.Event { return t.events }
func requestsOf(t *tables) map[int64]model.ParticipationRequest { return t.requests }

func (r reader) activeDuplicate(req model.ParticipationRequest) bool {
	if !req.Status.Active() {
		return false
	}
	dup := false
	each(r, requestsOf, func(other model.ParticipationRequest) {
		if other.ID != req.ID && other.EventID == req.EventID &&
			other.RequesterID == req.RequesterID && other.Status.Active() {
			dup = true
		}
	})
	return dup
}

func (r reader) emailTaken(u model.User) bool {
	taken := false
	each(r, usersOf, func(other model.User) {
		if other.ID != u.ID && other.Email == u.Email {
			taken = true
		}
	})
	return taken
}

func (r reader) categoryNameTaken(c model.Category) bool {
	taken := false
	each(r, categoriesOf, func(other model.Category) {
		if other.ID != c.ID && other.Name == c.Name {
			taken = true
		}
	})
	return taken
}

// resolve fills the denormalized category and initiator fields of e.
func (r reader) resolve(e model.Event) model.Event {
	if c, ok := lookup(r, categoriesOf, e.Category.ID); ok {
		e.Category = c
	}
	if u, ok := lookup(r, usersOf, e.Initiator.ID); ok {
		e.Initiator = u
	}
	return cloneEvent(e)
}

func (r reader) confirmedCount(eventID int64) int64 {
	var n int64
	each(r, requestsOf, func(req model.ParticipationRequest) {
		if req.EventID == eventID && req.Status == model.RequestConfirmed {
			n++
		}
	})
	return n
}

func cloneEvent(e model.Event) model.Event {
	if e.PublishedOn != nil {
		p := *e.PublishedOn
		e.PublishedOn = &p
	}
	return e
}

// view implements repository.Querier. With a nil overlay it reads and writes
// the committed data directly; otherwise writes are staged in the overlay.
type view struct {
	s       *Store
	overlay *tables
}

func (v *view) read(fn func(r reader)) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	fn(reader{base: v.s.data, overlay: v.overlay})
}

func (v *view) write(fn func(r reader, dst *tables) error) error {
	if v.overlay == nil {
		v.s.mu.Lock()
		defer v.s.mu.Unlock()
		return fn(reader{base: v.s.data}, v.s.data)
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	return fn(reader{base: v.s.data, overlay: v.overlay}, v.overlay)
}
