package model

// UserShortDto is the public projection of a user.
type UserShortDto struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UserDto is returned when a user is created.
type UserDto struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewUserRequest is the payload for registering a user.
type NewUserRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=250"`
	Email string `json:"email" validate:"required,email,min=6,max=254"`
}

// CategoryDto is the projection of a category.
type CategoryDto struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewCategoryDto is the payload for creating a category.
type NewCategoryDto struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
}

// LocationDto is the wire form of Location.
type LocationDto struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// EventFullDto is the detailed event projection.
type EventFullDto struct {
	Annotation        string       `json:"annotation"`
	Category          CategoryDto  `json:"category"`
	ConfirmedRequests int64        `json:"confirmedRequests"`
	CreatedOn         Timestamp    `json:"createdOn"`
	Description       string       `json:"description"`
	EventDate         Timestamp    `json:"eventDate"`
	ID                int64        `json:"id"`
	Initiator         UserShortDto `json:"initiator"`
	Location          LocationDto  `json:"location"`
	Paid              bool         `json:"paid"`
	ParticipantLimit  int          `json:"participantLimit"`
	PublishedOn       *Timestamp   `json:"publishedOn"`
	RequestModeration bool         `json:"requestModeration"`
	State             EventState   `json:"state"`
	Title             string       `json:"title"`
	Views             int64        `json:"views"`
}

// EventShortDto is the list projection of an event.
type EventShortDto struct {
	Annotation        string       `json:"annotation"`
	Category          CategoryDto  `json:"category"`
	ConfirmedRequests int64        `json:"confirmedRequests"`
	EventDate         Timestamp    `json:"eventDate"`
	ID                int64        `json:"id"`
	Initiator         UserShortDto `json:"initiator"`
	Paid              bool         `json:"paid"`
	Title             string       `json:"title"`
	Views             int64        `json:"views"`
}

// NewEventDto is the payload for creating an event.
type NewEventDto struct {
	Annotation        string       `json:"annotation" validate:"required,min=20,max=2000"`
	Category          int64        `json:"category" validate:"required,gt=0"`
	Description       string       `json:"description" validate:"required,min=20,max=7000"`
	EventDate         Timestamp    `json:"eventDate"`
	Location          *LocationDto `json:"location" validate:"required"`
	Paid              bool         `json:"paid"`
	ParticipantLimit  int          `json:"participantLimit" validate:"gte=0"`
	RequestModeration *bool        `json:"requestModeration"`
	Title             string       `json:"title" validate:"required,min=3,max=120"`
}

// EventPatch carries the mutable fields of an event. Nil fields are left
// unchanged.
type EventPatch struct {
	Annotation        *string      `json:"annotation,omitempty" validate:"omitempty,min=20,max=2000"`
	Category          *int64       `json:"category,omitempty" validate:"omitempty,gt=0"`
	Description       *string      `json:"description,omitempty" validate:"omitempty,min=20,max=7000"`
	EventDate         *Timestamp   `json:"eventDate,omitempty"`
	Location          *LocationDto `json:"location,omitempty"`
	Paid              *bool        `json:"paid,omitempty"`
	ParticipantLimit  *int         `json:"participantLimit,omitempty" validate:"omitempty,gte=0"`
	RequestModeration *bool        `json:"requestModeration,omitempty"`
	Title             *string      `json:"title,omitempty" validate:"omitempty,min=3,max=120"`
}

// UserStateAction is the owner's state request on an event update.
type UserStateAction string

const CancelReview UserStateAction = "CANCEL_REVIEW"

// UpdateEventUserRequest is the owner's event update payload.
type UpdateEventUserRequest struct {
	EventPatch
	StateAction UserStateAction `json:"stateAction,omitempty" validate:"omitempty,oneof=CANCEL_REVIEW"`
}

// AdminStateAction is the administrator's moderation decision.
type AdminStateAction string

const (
	PublishEvent AdminStateAction = "PUBLISH_EVENT"
	RejectEvent  AdminStateAction = "REJECT_EVENT"
)

// UpdateEventAdminRequest is the administrator's event update payload.
type UpdateEventAdminRequest struct {
	EventPatch
	StateAction AdminStateAction `json:"stateAction,omitempty" validate:"omitempty,oneof=PUBLISH_EVENT REJECT_EVENT"`
}

// ParticipationRequestDto is the projection of a participation request.
type ParticipationRequestDto struct {
	ID        int64         `json:"id"`
	Event     int64         `json:"event"`
	Requester int64         `json:"requester"`
	Created   Timestamp     `json:"created"`
	Status    RequestStatus `json:"status"`
}

// EventRequestStatusUpdateRequest asks for a batch of requests to be
// confirmed or rejected, processed in the given order.
type EventRequestStatusUpdateRequest struct {
	RequestIDs []int64       `json:"requestIds" validate:"required,min=1,dive,gt=0"`
	Status     RequestStatus `json:"status" validate:"required,oneof=CONFIRMED REJECTED"`
}

// EventRequestStatusUpdateResult separates the requests a bulk update
// confirmed from the ones it rejected.
type EventRequestStatusUpdateResult struct {
	ConfirmedRequests []ParticipationRequestDto `json:"confirmedRequests"`
	RejectedRequests  []ParticipationRequestDto `json:"rejectedRequests"`
}
