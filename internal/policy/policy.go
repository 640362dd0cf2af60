// Package policy decides which caller may perform which action on a resource.
// It is kept apart from the state machines in model so both tables can be
// tested on their own.
package policy

import (
	"github.com/Shivanand-hulikatti/explore-with-me/internal/apperror"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
)

// Caller identifies who is invoking an operation.
type Caller struct {
	UserID int64
	Admin  bool
}

// User returns a regular caller.
func User(id int64) Caller { return Caller{UserID: id} }

// Admin returns an administrator caller.
func Admin() Caller { return Caller{Admin: true} }

// Action names an operation subject to ownership checks.
type Action string

const (
	EditEvent      Action = "edit_event"
	CancelEvent    Action = "cancel_event"
	ModerateEvent  Action = "moderate_event"
	ViewOwnEvent   Action = "view_own_event"
	ManageRequests Action = "manage_requests"
	CancelRequest  Action = "cancel_request"
)

type rule func(c Caller, owner int64) bool

func owner(c Caller, id int64) bool { return !c.Admin && c.UserID == id }
func admin(c Caller, _ int64) bool { return c.Admin }
func ownerOrAdmin(c Caller, id int64) bool { return c.Admin || owner(c, id) }

var eventRules = map[Action]rule{
	EditEvent:      ownerOrAdmin,
	CancelEvent:    owner,
	ModerateEvent:  admin,
	ViewOwnEvent:   owner,
	ManageRequests: owner,
}

var requestRules = map[Action]rule{
	CancelRequest: owner,
}

// AuthorizeEvent returns a forbidden error unless c may perform action on ev.
func AuthorizeEvent(c Caller, action Action, ev *model.Event) error {
	allow, ok := eventRules[action]
	if !ok || !allow(c, ev.Initiator.ID) {
		return apperror.Forbidden("user %d may not %s on event %d", c.UserID, action, ev.ID)
	}
	return nil
}

// AuthorizeRequest returns a forbidden error unless c may perform action on r.
func AuthorizeRequest(c Caller, action Action, r *model.ParticipationRequest) error {
	allow, ok := requestRules[action]
	if !ok || !allow(c, r.RequesterID) {
		return apperror.Forbidden("user %d may not %s on request %d", c.UserID, action, r.ID)
	}
	return nil
}
