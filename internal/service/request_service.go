package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/apperror"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/policy"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/repository"
)

// RequestService is the admission engine for participation requests. Every
// write runs under the owning event's lock so the confirmed count it reads
// cannot change before its own writes land.
type RequestService struct {
	store repository.Store
	opts  Options
	log   zerolog.Logger
}

// NewRequestService constructs a RequestService.
func NewRequestService(store repository.Store, opts Options) *RequestService {
	opts = opts.withDefaults()
	return &RequestService{
		store: store,
		opts:  opts,
		log:   opts.Logger.With().Str("component", "request_service").Logger(),
	}
}

// CreateRequest files userID's request to attend eventID. The request is
// confirmed immediately when the event needs no moderation or has no limit.
func (s *RequestService) CreateRequest(ctx context.Context, userID, eventID int64) (model.ParticipationRequestDto, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return model.ParticipationRequestDto{}, storeErr(err, "User", userID)
	}

	var created model.ParticipationRequest
	err := s.store.WithEventLock(ctx, eventID, func(q repository.Querier, ev *model.Event) error {
		if ev.Initiator.ID == userID {
			return apperror.Conflict("The initiator of event %d cannot request participation in it", ev.ID)
		}
		if ev.State != model.EventPublished {
			return apperror.Conflict("Cannot participate in event %d because it is %s", ev.ID, ev.State)
		}
		_, err := q.FindActiveRequest(ctx, ev.ID, userID)
		switch {
		case err == nil:
			return apperror.Conflict("User %d already has a request for event %d", userID, ev.ID)
		case !errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("find active request: %w", err)
		}

		counts, err := q.CountConfirmed(ctx, []int64{ev.ID})
		if err != nil {
			return fmt.Errorf("count confirmed: %w", err)
		}
		if !ev.HasCapacity(counts[ev.ID]) {
			return apperror.Conflict("The participant limit has been reached for event %d", ev.ID)
		}

		created = model.ParticipationRequest{
			EventID:     ev.ID,
			RequesterID: userID,
			Created:     model.Truncate(s.opts.Now()),
			Status:      model.RequestPending,
		}
		if ev.AutoConfirms() {
			created.Status = model.RequestConfirmed
		}
		if err := q.CreateRequest(ctx, &created); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperror.Wrap(apperror.ErrConflict, err, "User %d already has a request for event %d", userID, ev.ID)
			}
			return fmt.Errorf("create request: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.ParticipationRequestDto{}, storeErr(err, "Event", eventID)
	}

	s.log.Info().
		Int64("request_id", created.ID).
		Int64("event_id", eventID).
		Int64("requester_id", userID).
		Str("status", string(created.Status)).
		Msg("participation request created")
	return model.ToRequestDto(created), nil
}

// CancelOwnRequest withdraws userID's request. A confirmed request gives its
// slot back; no pending request is promoted automatically.
func (s *RequestService) CancelOwnRequest(ctx context.Context, userID, requestID int64) (model.ParticipationRequestDto, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return model.ParticipationRequestDto{}, storeErr(err, "User", userID)
	}
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return model.ParticipationRequestDto{}, storeErr(err, "Request", requestID)
	}
	if err := policy.AuthorizeRequest(policy.User(userID), policy.CancelRequest, req); err != nil {
		return model.ParticipationRequestDto{}, err
	}

	var canceled model.ParticipationRequest
	err = s.store.WithEventLock(ctx, req.EventID, func(q repository.Querier, _ *model.Event) error {
		cur, err := q.GetRequest(ctx, requestID)
		if err != nil {
			return storeErr(err, "Request", requestID)
		}
		if !cur.Status.CanTransitionTo(model.RequestCanceled) {
			return apperror.Conflict("Request %d cannot be canceled from status %s", cur.ID, cur.Status)
		}
		if err := q.SetRequestStatus(ctx, []int64{cur.ID}, model.RequestCanceled); err != nil {
			return storeErr(err, "Request", cur.ID)
		}
		cur.Status = model.RequestCanceled
		canceled = *cur
		return nil
	})
	if err != nil {
		return model.ParticipationRequestDto{}, storeErr(err, "Event", req.EventID)
	}

	s.log.Info().Int64("request_id", requestID).Int64("event_id", req.EventID).Msg("participation request canceled")
	return model.ToRequestDto(canceled), nil
}

// BulkUpdateStatus confirms or rejects a batch of PENDING requests for one of
// userID's events.
//
// Confirmation walks the ids in the order given and confirms while slots
// remain; the rest of the batch is rejected. If no slot is left at all the
// call fails before writing anything. The capacity check and every write
// happen under the event lock, so concurrent batches cannot jointly exceed
// the limit.
func (s *RequestService) BulkUpdateStatus(ctx context.Context, userID, eventID int64, upd model.EventRequestStatusUpdateRequest) (model.EventRequestStatusUpdateResult, error) {
	if err := validateBatch(upd); err != nil {
		return model.EventRequestStatusUpdateResult{}, err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return model.EventRequestStatusUpdateResult{}, storeErr(err, "User", userID)
	}

	result := model.EventRequestStatusUpdateResult{
		ConfirmedRequests: []model.ParticipationRequestDto{},
		RejectedRequests:  []model.ParticipationRequestDto{},
	}
	err := s.store.WithEventLock(ctx, eventID, func(q repository.Querier, ev *model.Event) error {
		if err := policy.AuthorizeEvent(policy.User(userID), policy.ManageRequests, ev); err != nil {
			return err
		}
		batch, err := loadPending(ctx, q, ev.ID, upd.RequestIDs)
		if err != nil {
			return err
		}

		confirm, reject := batch[:0:0], batch
		if upd.Status == model.RequestConfirmed {
			split := len(batch)
			if !ev.Unlimited() {
				counts, err := q.CountConfirmed(ctx, []int64{ev.ID})
				if err != nil {
					return fmt.Errorf("count confirmed: %w", err)
				}
				remaining := ev.Remaining(counts[ev.ID])
				if remaining <= 0 {
					return apperror.Conflict("The participant limit has been reached for event %d", ev.ID)
				}
				if remaining < int64(split) {
					split = int(remaining)
				}
			}
			confirm, reject = batch[:split], batch[split:]
		}

		if err := setStatus(ctx, q, confirm, model.RequestConfirmed); err != nil {
			return err
		}
		if err := setStatus(ctx, q, reject, model.RequestRejected); err != nil {
			return err
		}
		result.ConfirmedRequests = append(result.ConfirmedRequests, model.ToRequestDtos(confirm)...)
		result.RejectedRequests = append(result.RejectedRequests, model.ToRequestDtos(reject)...)
		return nil
	})
	if err != nil {
		return model.EventRequestStatusUpdateResult{}, storeErr(err, "Event", eventID)
	}

	s.log.Info().
		Int64("event_id", eventID).
		Str("action", string(upd.Status)).
		Int("confirmed", len(result.ConfirmedRequests)).
		Int("rejected", len(result.RejectedRequests)).
		Msg("participation requests updated")
	return result, nil
}

// ListRequestsForRequester returns userID's own requests, optionally for a
// single event.
func (s *RequestService) ListRequestsForRequester(ctx context.Context, userID int64, eventID *int64) ([]model.ParticipationRequestDto, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, storeErr(err, "User", userID)
	}
	reqs, err := s.store.ListRequestsByRequester(ctx, userID, eventID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return model.ToRequestDtos(reqs), nil
}

// ListRequestsForEvent returns every request for one of userID's events.
func (s *RequestService) ListRequestsForEvent(ctx context.Context, userID, eventID int64) ([]model.ParticipationRequestDto, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, storeErr(err, "User", userID)
	}
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, storeErr(err, "Event", eventID)
	}
	if err := policy.AuthorizeEvent(policy.User(userID), policy.ManageRequests, ev); err != nil {
		return nil, err
	}
	reqs, err := s.store.ListRequestsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return model.ToRequestDtos(reqs), nil
}

func validateBatch(upd model.EventRequestStatusUpdateRequest) error {
	if len(upd.RequestIDs) == 0 {
		return apperror.Validation("requestIds must not be empty")
	}
	if upd.Status != model.RequestConfirmed && upd.Status != model.RequestRejected {
		return apperror.Validation("status must be CONFIRMED or REJECTED, got %q", upd.Status)
	}
	seen := make(map[int64]struct{}, len(upd.RequestIDs))
	for _, id := range upd.RequestIDs {
		if _, dup := seen[id]; dup {
			return apperror.Validation("request %d is listed more than once", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// loadPending fetches ids in order and checks each one is a PENDING request
// of eventID.
func loadPending(ctx context.Context, q repository.Querier, eventID int64, ids []int64) ([]model.ParticipationRequest, error) {
	found, err := q.GetRequests(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load requests: %w", err)
	}
	byID := make(map[int64]model.ParticipationRequest, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}

	batch := make([]model.ParticipationRequest, 0, len(ids))
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			return nil, apperror.NotFound("Request with id=%d was not found", id)
		}
		if r.EventID != eventID {
			return nil, apperror.Conflict("Request %d does not belong to event %d", id, eventID)
		}
		if r.Status != model.RequestPending {
			return nil, apperror.Conflict("Request %d must have status PENDING, but is %s", id, r.Status)
		}
		batch = append(batch, r)
	}
	return batch, nil
}

func setStatus(ctx context.Context, q repository.Querier, batch []model.ParticipationRequest, status model.RequestStatus) error {
	if len(batch) == 0 {
		return nil
	}
	ids := make([]int64, len(batch))
	for i := range batch {
		ids[i] = batch[i].ID
		batch[i].Status = status
	}
	if err := q.SetRequestStatus(ctx, ids, status); err != nil {
		return fmt.Errorf("set status %s: %w", status, err)
	}
	return nil
}
