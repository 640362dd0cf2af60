package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/apperror"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/policy"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/repository"
)

// Public search orderings.
const (
	SortEventDate = "EVENT_DATE"
	SortViews     = "VIEWS"
)

// EventService owns the event lifecycle: creation, moderation, cancellation
// and edits, plus the decorated read models.
type EventService struct {
	store repository.Store
	stats StatsGateway
	opts  Options
	log   zerolog.Logger
}

// NewEventService constructs an EventService. stats may be nil, in which case
// every event reports zero views.
func NewEventService(store repository.Store, stats StatsGateway, opts Options) *EventService {
	opts = opts.withDefaults()
	return &EventService{
		store: store,
		stats: stats,
		opts:  opts,
		log:   opts.Logger.With().Str("component", "event_service").Logger(),
	}
}

func (s *EventService) now() time.Time {
	return model.Truncate(s.opts.Now())
}

// CreateEvent registers a new PENDING event owned by userID.
func (s *EventService) CreateEvent(ctx context.Context, userID int64, dto model.NewEventDto) (model.EventFullDto, error) {
	initiator, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return model.EventFullDto{}, storeErr(err, "User", userID)
	}
	category, err := s.store.GetCategory(ctx, dto.Category)
	if err != nil {
		return model.EventFullDto{}, storeErr(err, "Category", dto.Category)
	}
	if dto.Location == nil {
		return model.EventFullDto{}, apperror.Validation("location is required")
	}

	now := s.now()
	if err := checkEventDate(dto.EventDate.Time, now, s.opts.CreateGuard); err != nil {
		return model.EventFullDto{}, err
	}

	moderation := true
	if dto.RequestModeration != nil {
		moderation = *dto.RequestModeration
	}
	ev := model.Event{
		Title:             strings.TrimSpace(dto.Title),
		Annotation:        dto.Annotation,
		Description:       dto.Description,
		Category:          *category,
		Location:          model.Location{Lat: dto.Location.Lat, Lon: dto.Location.Lon},
		EventDate:         model.Truncate(dto.EventDate.Time),
		Paid:              dto.Paid,
		ParticipantLimit:  dto.ParticipantLimit,
		RequestModeration: moderation,
		State:             model.EventPending,
		CreatedOn:         now,
		Initiator:         *initiator,
	}
	if ev.ParticipantLimit < 0 {
		return model.EventFullDto{}, apperror.Validation("participantLimit must not be negative")
	}
	if err := s.store.CreateEvent(ctx, &ev); err != nil {
		return model.EventFullDto{}, fmt.Errorf("create event: %w", storeErr(err, "Event", 0))
	}

	s.log.Info().Int64("event_id", ev.ID).Int64("initiator_id", userID).Msg("event created")
	return model.ToEventFullDto(ev, 0, 0), nil
}

// GetOwnerEvent returns one of userID's events in any state.
func (s *EventService) GetOwnerEvent(ctx context.Context, userID, eventID int64) (model.EventFullDto, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return model.EventFullDto{}, storeErr(err, "User", userID)
	}
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return model.EventFullDto{}, storeErr(err, "Event", eventID)
	}
	if err := policy.AuthorizeEvent(policy.User(userID), policy.ViewOwnEvent, ev); err != nil {
		return model.EventFullDto{}, err
	}
	return s.full(ctx, *ev)
}

// GetEventWithCounts returns any event with live counters, regardless of state.
func (s *EventService) GetEventWithCounts(ctx context.Context, eventID int64) (model.EventFullDto, error) {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return model.EventFullDto{}, storeErr(err, "Event", eventID)
	}
	return s.full(ctx, *ev)
}

// GetPublicEvent returns a published event; other states are reported as
// not found.
func (s *EventService) GetPublicEvent(ctx context.Context, eventID int64) (model.EventFullDto, error) {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return model.EventFullDto{}, storeErr(err, "Event", eventID)
	}
	if ev.State != model.EventPublished {
		return model.EventFullDto{}, apperror.NotFound("Event with id=%d was not found", eventID)
	}
	return s.full(ctx, *ev)
}

// ListOwnerEvents pages through the events created by userID.
func (s *EventService) ListOwnerEvents(ctx context.Context, userID int64, page Page) ([]model.EventShortDto, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, storeErr(err, "User", userID)
	}
	events, err := s.store.FindEvents(ctx, repository.EventFilter{
		Initiators: []int64{userID},
		Offset:     page.From,
		Limit:      page.Size,
	})
	if err != nil {
		return nil, fmt.Errorf("list owner events: %w", err)
	}
	return s.shorts(ctx, events)
}

// AdminSearch filters the administrator's event listing.
type AdminSearch struct {
	Users      []int64
	States     []model.EventState
	Categories []int64
	RangeStart *time.Time
	RangeEnd   *time.Time
	Page       Page
}

// SearchAdminEvents lists events in any state.
func (s *EventService) SearchAdminEvents(ctx context.Context, q AdminSearch) ([]model.EventFullDto, error) {
	if err := checkRange(q.RangeStart, q.RangeEnd); err != nil {
		return nil, err
	}
	for _, st := range q.States {
		if !st.Valid() {
			return nil, apperror.Validation("unknown event state %q", st)
		}
	}
	events, err := s.store.FindEvents(ctx, repository.EventFilter{
		Initiators: q.Users,
		States:     q.States,
		Categories: q.Categories,
		RangeStart: q.RangeStart,
		RangeEnd:   q.RangeEnd,
		Offset:     q.Page.From,
		Limit:      q.Page.Size,
	})
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	c, err := decorate(ctx, s.store, s.stats, s.log, events)
	if err != nil {
		return nil, fmt.Errorf("decorate events: %w", err)
	}
	out := make([]model.EventFullDto, 0, len(events))
	for _, e := range events {
		out = append(out, c.full(e))
	}
	return out, nil
}

// PublicSearch filters the public event listing.
type PublicSearch struct {
	Text          string
	Categories    []int64
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	Sort          string
	Page          Page
}

// SearchPublicEvents lists published events. Without an explicit range only
// future events are returned.
func (s *EventService) SearchPublicEvents(ctx context.Context, q PublicSearch) ([]model.EventShortDto, error) {
	if err := checkRange(q.RangeStart, q.RangeEnd); err != nil {
		return nil, err
	}
	switch q.Sort {
	case "", SortEventDate, SortViews:
	default:
		return nil, apperror.Validation("unknown sort %q", q.Sort)
	}

	f := repository.EventFilter{
		States:        []model.EventState{model.EventPublished},
		Text:          q.Text,
		Categories:    q.Categories,
		Paid:          q.Paid,
		RangeStart:    q.RangeStart,
		RangeEnd:      q.RangeEnd,
		OnlyAvailable: q.OnlyAvailable,
	}
	if f.RangeStart == nil && f.RangeEnd == nil {
		now := s.now()
		f.RangeStart = &now
	}
	if q.Sort == SortEventDate {
		f.Sort = repository.SortByEventDate
	}
	// Views live outside the store, so VIEWS ordering pages after decoration.
	if q.Sort != SortViews {
		f.Offset, f.Limit = q.Page.From, q.Page.Size
	}

	events, err := s.store.FindEvents(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	out, err := s.shorts(ctx, events)
	if err != nil {
		return nil, err
	}
	if q.Sort == SortViews {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Views > out[j].Views })
		out = paginate(out, q.Page)
	}
	return out, nil
}

// UpdateByOwner applies the owner's patch and optional cancellation.
func (s *EventService) UpdateByOwner(ctx context.Context, userID, eventID int64, req model.UpdateEventUserRequest) (model.EventFullDto, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return model.EventFullDto{}, storeErr(err, "User", userID)
	}
	caller := policy.User(userID)

	var updated model.Event
	err := s.store.WithEventLock(ctx, eventID, func(q repository.Querier, ev *model.Event) error {
		if err := policy.AuthorizeEvent(caller, policy.EditEvent, ev); err != nil {
			return err
		}
		if !ev.State.Editable() {
			return apperror.Conflict("Only pending or published events can be changed, event %d is %s", ev.ID, ev.State)
		}
		switch req.StateAction {
		case "":
		case model.CancelReview:
			if err := policy.AuthorizeEvent(caller, policy.CancelEvent, ev); err != nil {
				return err
			}
			if !ev.State.CanTransitionTo(model.EventCanceled) {
				return apperror.Conflict("Cannot cancel the event because it's not in the right state: %s", ev.State)
			}
		default:
			return apperror.Validation("unknown stateAction %q", req.StateAction)
		}

		now := s.now()
		if err := s.applyPatch(ctx, q, ev, req.EventPatch, now, s.opts.CreateGuard); err != nil {
			return err
		}
		if req.StateAction == model.CancelReview {
			ev.State = model.EventCanceled
		}
		if err := q.UpdateEvent(ctx, ev); err != nil {
			return storeErr(err, "Event", ev.ID)
		}
		updated = *ev
		return nil
	})
	if err != nil {
		return model.EventFullDto{}, storeErr(err, "Event", eventID)
	}

	if req.StateAction == model.CancelReview {
		s.log.Info().Int64("event_id", eventID).Int64("initiator_id", userID).Msg("event canceled")
	}
	return s.full(ctx, updated)
}

// UpdateByAdmin applies an administrator's patch and optional moderation
// decision.
func (s *EventService) UpdateByAdmin(ctx context.Context, eventID int64, req model.UpdateEventAdminRequest) (model.EventFullDto, error) {
	caller := policy.Admin()

	var updated model.Event
	err := s.store.WithEventLock(ctx, eventID, func(q repository.Querier, ev *model.Event) error {
		if err := policy.AuthorizeEvent(caller, policy.EditEvent, ev); err != nil {
			return err
		}
		var target model.EventState
		switch req.StateAction {
		case "":
		case model.PublishEvent:
			target = model.EventPublished
		case model.RejectEvent:
			target = model.EventRejected
		default:
			return apperror.Validation("unknown stateAction %q", req.StateAction)
		}
		if target != "" {
			if err := policy.AuthorizeEvent(caller, policy.ModerateEvent, ev); err != nil {
				return err
			}
			if !ev.State.CanTransitionTo(target) {
				return apperror.Conflict("Cannot move the event from %s to %s", ev.State, target)
			}
		} else if !ev.State.Editable() {
			return apperror.Conflict("Only pending or published events can be changed, event %d is %s", ev.ID, ev.State)
		}

		now := s.now()
		if err := s.applyPatch(ctx, q, ev, req.EventPatch, now, s.opts.PublishGuard); err != nil {
			return err
		}
		if target == model.EventPublished {
			if ev.EventDate.Before(now.Add(s.opts.PublishGuard)) {
				return apperror.Conflict("Cannot publish the event: it starts less than %s from now", s.opts.PublishGuard)
			}
			ev.PublishedOn = &now
		}
		if target != "" {
			ev.State = target
		}
		if err := q.UpdateEvent(ctx, ev); err != nil {
			return storeErr(err, "Event", ev.ID)
		}
		updated = *ev
		return nil
	})
	if err != nil {
		return model.EventFullDto{}, storeErr(err, "Event", eventID)
	}

	if req.StateAction != "" {
		s.log.Info().Int64("event_id", eventID).Str("state", string(updated.State)).Msg("event moderated")
	}
	return s.full(ctx, updated)
}

// PublishEvent moves a PENDING event to PUBLISHED.
func (s *EventService) PublishEvent(ctx context.Context, eventID int64) (model.EventFullDto, error) {
	return s.UpdateByAdmin(ctx, eventID, model.UpdateEventAdminRequest{StateAction: model.PublishEvent})
}

// RejectEvent moves a PENDING event to REJECTED.
func (s *EventService) RejectEvent(ctx context.Context, eventID int64) (model.EventFullDto, error) {
	return s.UpdateByAdmin(ctx, eventID, model.UpdateEventAdminRequest{StateAction: model.RejectEvent})
}

// CancelEvent lets the owner withdraw a PENDING event.
func (s *EventService) CancelEvent(ctx context.Context, userID, eventID int64) (model.EventFullDto, error) {
	return s.UpdateByOwner(ctx, userID, eventID, model.UpdateEventUserRequest{StateAction: model.CancelReview})
}

// applyPatch copies the non-nil fields of p onto ev. Fields equal to their
// current value are left alone, so re-submitting a projection is a no-op.
func (s *EventService) applyPatch(ctx context.Context, q repository.Querier, ev *model.Event, p model.EventPatch, now time.Time, guard time.Duration) error {
	if p.Title != nil {
		ev.Title = strings.TrimSpace(*p.Title)
	}
	if p.Annotation != nil {
		ev.Annotation = *p.Annotation
	}
	if p.Description != nil {
		ev.Description = *p.Description
	}
	if p.Category != nil && *p.Category != ev.Category.ID {
		c, err := q.GetCategory(ctx, *p.Category)
		if err != nil {
			return storeErr(err, "Category", *p.Category)
		}
		ev.Category = *c
	}
	if p.EventDate != nil {
		date := model.Truncate(p.EventDate.Time)
		if !date.Equal(ev.EventDate) {
			if err := checkEventDate(date, now, guard); err != nil {
				return err
			}
			ev.EventDate = date
		}
	}
	if p.Location != nil {
		ev.Location = model.Location{Lat: p.Location.Lat, Lon: p.Location.Lon}
	}
	if p.Paid != nil {
		ev.Paid = *p.Paid
	}
	if p.RequestModeration != nil {
		ev.RequestModeration = *p.RequestModeration
	}
	if p.ParticipantLimit != nil && *p.ParticipantLimit != ev.ParticipantLimit {
		limit := *p.ParticipantLimit
		if limit < 0 {
			return apperror.Validation("participantLimit must not be negative")
		}
		if limit > 0 {
			counts, err := q.CountConfirmed(ctx, []int64{ev.ID})
			if err != nil {
				return fmt.Errorf("count confirmed: %w", err)
			}
			if confirmed := counts[ev.ID]; confirmed > int64(limit) {
				return apperror.Conflict("participantLimit %d is below the %d already confirmed requests", limit, confirmed)
			}
		}
		ev.ParticipantLimit = limit
	}
	return nil
}

func (s *EventService) full(ctx context.Context, ev model.Event) (model.EventFullDto, error) {
	c, err := decorate(ctx, s.store, s.stats, s.log, []model.Event{ev})
	if err != nil {
		return model.EventFullDto{}, fmt.Errorf("decorate event: %w", err)
	}
	return c.full(ev), nil
}

func (s *EventService) shorts(ctx context.Context, events []model.Event) ([]model.EventShortDto, error) {
	c, err := decorate(ctx, s.store, s.stats, s.log, events)
	if err != nil {
		return nil, fmt.Errorf("decorate events: %w", err)
	}
	out := make([]model.EventShortDto, 0, len(events))
	for _, e := range events {
		out = append(out, c.short(e))
	}
	return out, nil
}

func checkEventDate(date, now time.Time, guard time.Duration) error {
	if date.IsZero() {
		return apperror.Validation("eventDate is required")
	}
	if date.Before(now.Add(guard)) {
		return apperror.Validation("Field: eventDate. Error: must be at least %s after the current time. Value: %s",
			guard, model.FormatTime(date))
	}
	return nil
}

func checkRange(start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return apperror.Validation("rangeStart %s is after rangeEnd %s", model.FormatTime(*start), model.FormatTime(*end))
	}
	return nil
}
