// Package repository declares the persistence contracts the service layer
// depends on. Implementations live in the postgres and memory subpackages.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a write violates a uniqueness constraint,
// e.g. a second active request for the same (event, requester) pair.
var ErrDuplicate = errors.New("duplicate record")

// EventSort orders FindEvents results.
type EventSort int

const (
	SortByID EventSort = iota
	SortByEventDate
)

// EventFilter narrows FindEvents. Zero-valued fields do not filter.
type EventFilter struct {
	Initiators    []int64
	States        []model.EventState
	Categories    []int64
	Text          string
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	Sort          EventSort
	Offset        int
	// Limit of 0 returns every match.
	Limit int
}

// Querier is the set of reads and writes available both outside and inside an
// event lock.
type Querier interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
	CreateCategory(ctx context.Context, c *model.Category) error
	GetCategory(ctx context.Context, id int64) (*model.Category, error)

	// CreateEvent assigns e.ID.
	CreateEvent(ctx context.Context, e *model.Event) error
	GetEvent(ctx context.Context, id int64) (*model.Event, error)
	UpdateEvent(ctx context.Context, e *model.Event) error
	FindEvents(ctx context.Context, f EventFilter) ([]model.Event, error)

	// CreateRequest assigns r.ID.
	CreateRequest(ctx context.Context, r *model.ParticipationRequest) error
	GetRequest(ctx context.Context, id int64) (*model.ParticipationRequest, error)
	// GetRequests returns the requests that exist among ids, in no particular order.
	GetRequests(ctx context.Context, ids []int64) ([]model.ParticipationRequest, error)
	// FindActiveRequest returns the non-canceled request of requesterID for eventID.
	FindActiveRequest(ctx context.Context, eventID, requesterID int64) (*model.ParticipationRequest, error)
	SetRequestStatus(ctx context.Context, ids []int64, status model.RequestStatus) error
	ListRequestsByRequester(ctx context.Context, requesterID int64, eventID *int64) ([]model.ParticipationRequest, error)
	ListRequestsByEvent(ctx context.Context, eventID int64) ([]model.ParticipationRequest, error)
	// CountConfirmed returns the number of CONFIRMED requests per event.
	// Events without confirmed requests are absent from the map.
	CountConfirmed(ctx context.Context, eventIDs []int64) (map[int64]int64, error)
}

// Store is a Querier that can also serialize work per event.
type Store interface {
	Querier

	// WithEventLock runs fn while holding an exclusive lock on the event,
	// passing the locked event and a Querier bound to the same unit of work.
	// Writes made through q are committed only if fn returns nil. Returns
	// ErrNotFound if the event does not exist.
	WithEventLock(ctx context.Context, eventID int64, fn func(q Querier, ev *model.Event) error) error
}
