// Package model defines the core domain types of the event service: events,
// participation requests and the identity/category records they reference.
package model

import "time"

// EventState is the moderation state of an Event.
type EventState string

const (
	EventPending   EventState = "PENDING"
	EventPublished EventState = "PUBLISHED"
	EventCanceled  EventState = "CANCELED"
	EventRejected  EventState = "REJECTED"
)

// eventTransitions lists every state change an event may undergo.
var eventTransitions = map[EventState][]EventState{
	EventPending: {EventPublished, EventRejected, EventCanceled},
}

// CanTransitionTo reports whether the event state machine allows s -> to.
func (s EventState) CanTransitionTo(to EventState) bool {
	for _, next := range eventTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Editable reports whether descriptive fields may still change in state s.
func (s EventState) Editable() bool {
	return s == EventPending || s == EventPublished
}

// Valid reports whether s is a known state.
func (s EventState) Valid() bool {
	switch s {
	case EventPending, EventPublished, EventCanceled, EventRejected:
		return true
	}
	return false
}

// RequestStatus is the admission status of a ParticipationRequest.
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestConfirmed RequestStatus = "CONFIRMED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestCanceled  RequestStatus = "CANCELED"
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:   {RequestConfirmed, RequestRejected, RequestCanceled},
	RequestConfirmed: {RequestCanceled},
}

// CanTransitionTo reports whether the request state machine allows s -> to.
func (s RequestStatus) CanTransitionTo(to RequestStatus) bool {
	for _, next := range requestTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Active reports whether a request in status s blocks a second request from
// the same user for the same event.
func (s RequestStatus) Active() bool {
	return s != RequestCanceled
}

// Location is a latitude/longitude pair.
type Location struct {
	Lat float64
	Lon float64
}

// User is a registered account. Only the fields the core reads are kept.
type User struct {
	ID    int64
	Name  string
	Email string
}

// Category groups events.
type Category struct {
	ID   int64
	Name string
}

// Event represents one proposed or published gathering.
type Event struct {
	ID                int64
	Title             string
	Annotation        string
	Description       string
	Category          Category
	Location          Location
	EventDate         time.Time
	Paid              bool
	ParticipantLimit  int
	RequestModeration bool
	State             EventState
	CreatedOn         time.Time
	PublishedOn       *time.Time
	Initiator         User
}

// Unlimited reports whether the event admits any number of participants.
func (e *Event) Unlimited() bool {
	return e.ParticipantLimit == 0
}

// Remaining returns how many more requests may be confirmed given the current
// confirmed count. The result is meaningless when Unlimited is true.
func (e *Event) Remaining(confirmed int64) int64 {
	return int64(e.ParticipantLimit) - confirmed
}

// HasCapacity reports whether one more request may be confirmed.
func (e *Event) HasCapacity(confirmed int64) bool {
	return e.Unlimited() || e.Remaining(confirmed) > 0
}

// AutoConfirms reports whether new requests skip moderation.
func (e *Event) AutoConfirms() bool {
	return !e.RequestModeration || e.Unlimited()
}

// ParticipationRequest is one user's bid to attend one event.
type ParticipationRequest struct {
	ID          int64
	EventID     int64
	RequesterID int64
	Created     time.Time
	Status      RequestStatus
}
