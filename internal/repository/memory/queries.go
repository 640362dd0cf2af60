package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/repository"
)

func (v *view) CreateUser(_ context.Context, u *model.User) error {
	return v.write(func(r reader, dst *tables) error {
		if r.emailTaken(*u) {
			return repository.ErrDuplicate
		}
		u.ID = v.s.nextID()
		dst.users[u.ID] = *u
		return nil
	})
}

func (v *view) GetUser(_ context.Context, id int64) (*model.User, error) {
	var (
		u  model.User
		ok bool
	)
	v.read(func(r reader) { u, ok = lookup(r, usersOf, id) })
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (v *view) CreateCategory(_ context.Context, c *model.Category) error {
	return v.write(func(r reader, dst *tables) error {
		if r.categoryNameTaken(*c) {
			return repository.ErrDuplicate
		}
		c.ID = v.s.nextID()
		dst.categories[c.ID] = *c
		return nil
	})
}

func (v *view) GetCategory(_ context.Context, id int64) (*model.Category, error) {
	var (
		c  model.Category
		ok bool
	)
	v.read(func(r reader) { c, ok = lookup(r, categoriesOf, id) })
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (v *view) CreateEvent(_ context.Context, e *model.Event) error {
	return v.write(func(r reader, dst *tables) error {
		if _, ok := lookup(r, categoriesOf, e.Category.ID); !ok {
			return repository.ErrNotFound
		}
		if _, ok := lookup(r, usersOf, e.Initiator.ID); !ok {
			return repository.ErrNotFound
		}
		e.ID = v.s.nextID()
		dst.events[e.ID] = cloneEvent(*e)
		return nil
	})
}

func (v *view) GetEvent(_ context.Context, id int64) (*model.Event, error) {
	var (
		e  model.Event
		ok bool
	)
	v.read(func(r reader) {
		e, ok = lookup(r, eventsOf, id)
		if ok {
			e = r.resolve(e)
		}
	})
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (v *view) UpdateEvent(_ context.Context, e *model.Event) error {
	return v.write(func(r reader, dst *tables) error {
		if _, ok := lookup(r, eventsOf, e.ID); !ok {
			return repository.ErrNotFound
		}
		if _, ok := lookup(r, categoriesOf, e.Category.ID); !ok {
			return repository.ErrNotFound
		}
		dst.events[e.ID] = cloneEvent(*e)
		return nil
	})
}

func (v *view) FindEvents(_ context.Context, f repository.EventFilter) ([]model.Event, error) {
	var out []model.Event
	v.read(func(r reader) {
		each(r, eventsOf, func(e model.Event) {
			if matches(r, e, f) {
				out = append(out, r.resolve(e))
			}
		})
	})

	switch f.Sort {
	case repository.SortByEventDate:
		sort.Slice(out, func(i, j int) bool {
			if out[i].EventDate.Equal(out[j].EventDate) {
				return out[i].ID < out[j].ID
			}
			return out[i].EventDate.Before(out[j].EventDate)
		})
	default:
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}
	return paginate(out, f.Offset, f.Limit), nil
}

func matches(r reader, e model.Event, f repository.EventFilter) bool {
	if len(f.Initiators) > 0 && !containsID(f.Initiators, e.Initiator.ID) {
		return false
	}
	if len(f.Categories) > 0 && !containsID(f.Categories, e.Category.ID) {
		return false
	}
	if len(f.States) > 0 {
		found := false
		for _, s := range f.States {
			if s == e.State {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if text := strings.ToLower(strings.TrimSpace(f.Text)); text != "" {
		if !strings.Contains(strings.ToLower(e.Title), text) &&
			!strings.Contains(strings.ToLower(e.Annotation), text) &&
			!strings.Contains(strings.ToLower(e.Description), text) {
			return false
		}
	}
	if f.Paid != nil && e.Paid != *f.Paid {
		return false
	}
	if f.RangeStart != nil && e.EventDate.Before(*f.RangeStart) {
		return false
	}
	if f.RangeEnd != nil && e.EventDate.After(*f.RangeEnd) {
		return false
	}
	if f.OnlyAvailable && !e.HasCapacity(r.confirmedCount(e.ID)) {
		return false
	}
	return true
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (v *view) CreateRequest(_ context.Context, req *model.ParticipationRequest) error {
	return v.write(func(r reader, dst *tables) error {
		if _, ok := lookup(r, eventsOf, req.EventID); !ok {
			return repository.ErrNotFound
		}
		if r.activeDuplicate(*req) {
			return repository.ErrDuplicate
		}
		req.ID = v.s.nextID()
		dst.requests[req.ID] = *req
		return nil
	})
}

func (v *view) GetRequest(_ context.Context, id int64) (*model.ParticipationRequest, error) {
	var (
		req model.ParticipationRequest
		ok  bool
	)
	v.read(func(r reader) { req, ok = lookup(r, requestsOf, id) })
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &req, nil
}

func (v *view) GetRequests(_ context.Context, ids []int64) ([]model.ParticipationRequest, error) {
	var out []model.ParticipationRequest
	v.read(func(r reader) {
		for _, id := range ids {
			if req, ok := lookup(r, requestsOf, id); ok {
				out = append(out, req)
			}
		}
	})
	return out, nil
}

func (v *view) FindActiveRequest(_ context.Context, eventID, requesterID int64) (*model.ParticipationRequest, error) {
	var found *model.ParticipationRequest
	v.read(func(r reader) {
		each(r, requestsOf, func(req model.ParticipationRequest) {
			if req.EventID == eventID && req.RequesterID == requesterID && req.Status.Active() {
				found = &req
			}
		})
	})
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (v *view) SetRequestStatus(_ context.Context, ids []int64, status model.RequestStatus) error {
	return v.write(func(r reader, dst *tables) error {
		updated := make([]model.ParticipationRequest, 0, len(ids))
		for _, id := range ids {
			req, ok := lookup(r, requestsOf, id)
			if !ok {
				return repository.ErrNotFound
			}
			req.Status = status
			updated = append(updated, req)
		}
		for _, req := range updated {
			dst.requests[req.ID] = req
		}
		return nil
	})
}

func (v *view) ListRequestsByRequester(_ context.Context, requesterID int64, eventID *int64) ([]model.ParticipationRequest, error) {
	return v.filterRequests(func(req model.ParticipationRequest) bool {
		return req.RequesterID == requesterID && (eventID == nil || req.EventID == *eventID)
	}), nil
}

func (v *view) ListRequestsByEvent(_ context.Context, eventID int64) ([]model.ParticipationRequest, error) {
	return v.filterRequests(func(req model.ParticipationRequest) bool {
		return req.EventID == eventID
	}), nil
}

func (v *view) filterRequests(keep func(model.ParticipationRequest) bool) []model.ParticipationRequest {
	var out []model.ParticipationRequest
	v.read(func(r reader) {
		each(r, requestsOf, func(req model.ParticipationRequest) {
			if keep(req) {
				out = append(out, req)
			}
		})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v *view) CountConfirmed(_ context.Context, eventIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(eventIDs))
	v.read(func(r reader) {
		for _, id := range eventIDs {
			if n := r.confirmedCount(id); n > 0 {
				counts[id] = n
			}
		}
	})
	return counts, nil
}
