package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/repository"
)

const requestColumns = `id, event_id, requester_id, created, status`

func scanRequest(row pgx.Row) (*model.ParticipationRequest, error) {
	var (
		r      model.ParticipationRequest
		status string
	)
	if err := row.Scan(&r.ID, &r.EventID, &r.RequesterID, &r.Created, &status); err != nil {
		return nil, err
	}
	r.Status = model.RequestStatus(status)
	r.Created = model.Truncate(r.Created)
	return &r, nil
}

func collectRequests(rows pgx.Rows) ([]model.ParticipationRequest, error) {
	defer rows.Close()

	var out []model.ParticipationRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// CreateRequest inserts a participation request and assigns its id. A second
// active request for the same (event, requester) pair trips the
// uq_requests_active index and comes back as repository.ErrDuplicate.
func (q *queries) CreateRequest(ctx context.Context, r *model.ParticipationRequest) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO participation_requests (event_id, requester_id, created, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		r.EventID, r.RequesterID, r.Created, string(r.Status),
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert request: %w", translate(err))
	}
	return nil
}

// GetRequest returns a single request or repository.ErrNotFound.
func (q *queries) GetRequest(ctx context.Context, id int64) (*model.ParticipationRequest, error) {
	r, err := scanRequest(q.db.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM participation_requests WHERE id = $1`, id,
	))
	if err != nil {
		return nil, translate(err)
	}
	return r, nil
}

// GetRequests returns the requests among ids that exist.
func (q *queries) GetRequests(ctx context.Context, ids []int64) ([]model.ParticipationRequest, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := q.db.Query(ctx,
		`SELECT `+requestColumns+` FROM participation_requests WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("get requests: %w", err)
	}
	return collectRequests(rows)
}

// FindActiveRequest returns the requester's non-canceled request for the event.
func (q *queries) FindActiveRequest(ctx context.Context, eventID, requesterID int64) (*model.ParticipationRequest, error) {
	r, err := scanRequest(q.db.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM participation_requests
		 WHERE event_id = $1 AND requester_id = $2 AND status <> $3`,
		eventID, requesterID, string(model.RequestCanceled),
	))
	if err != nil {
		return nil, translate(err)
	}
	return r, nil
}

// SetRequestStatus moves every request in ids to status.
func (q *queries) SetRequestStatus(ctx context.Context, ids []int64, status model.RequestStatus) error {
	if len(ids) == 0 {
		return nil
	}
	tag, err := q.db.Exec(ctx,
		`UPDATE participation_requests SET status = $1 WHERE id = ANY($2)`,
		string(status), ids,
	)
	if err != nil {
		return fmt.Errorf("update request status: %w", translate(err))
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return repository.ErrNotFound
	}
	return nil
}

// ListRequestsByRequester returns a user's requests, optionally for one event.
func (q *queries) ListRequestsByRequester(ctx context.Context, requesterID int64, eventID *int64) ([]model.ParticipationRequest, error) {
	qb := q.sb.Select("id", "event_id", "requester_id", "created", "status").
		From("participation_requests").
		Where(sq.Eq{"requester_id": requesterID}).
		OrderBy("id ASC")
	if eventID != nil {
		qb = qb.Where(sq.Eq{"event_id": *eventID})
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build requests query: %w", err)
	}
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests by requester: %w", err)
	}
	return collectRequests(rows)
}

// ListRequestsByEvent returns every request made for an event.
func (q *queries) ListRequestsByEvent(ctx context.Context, eventID int64) ([]model.ParticipationRequest, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+requestColumns+` FROM participation_requests WHERE event_id = $1 ORDER BY id ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list requests by event: %w", err)
	}
	return collectRequests(rows)
}

// CountConfirmed derives the confirmed count per event from the request rows.
func (q *queries) CountConfirmed(ctx context.Context, eventIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}
	rows, err := q.db.Query(ctx,
		`SELECT event_id, COUNT(*)
		 FROM participation_requests
		 WHERE status = $1 AND event_id = ANY($2)
		 GROUP BY event_id`,
		string(model.RequestConfirmed), eventIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("count confirmed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
