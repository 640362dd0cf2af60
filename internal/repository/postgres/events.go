package postgres

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/repository"
)

var eventColumns = []string{
	"e.id", "e.title", "e.annotation", "e.description",
	"c.id", "c.name",
	"e.lat", "e.lon", "e.event_date", "e.paid", "e.participant_limit", "e.request_moderation",
	"e.state", "e.created_on", "e.published_on",
	"u.id", "u.name", "u.email",
}

func (q *queries) selectEvents() sq.SelectBuilder {
	return q.sb.Select(eventColumns...).
		From("events e").
		Join("categories c ON c.id = e.category_id").
		Join("users u ON u.id = e.initiator_id")
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var (
		e     model.Event
		state string
	)
	err := row.Scan(
		&e.ID, &e.Title, &e.Annotation, &e.Description,
		&e.Category.ID, &e.Category.Name,
		&e.Location.Lat, &e.Location.Lon, &e.EventDate, &e.Paid, &e.ParticipantLimit, &e.RequestModeration,
		&state, &e.CreatedOn, &e.PublishedOn,
		&e.Initiator.ID, &e.Initiator.Name, &e.Initiator.Email,
	)
	if err != nil {
		return nil, err
	}
	e.State = model.EventState(state)
	e.EventDate = model.Truncate(e.EventDate)
	e.CreatedOn = model.Truncate(e.CreatedOn)
	if e.PublishedOn != nil {
		p := model.Truncate(*e.PublishedOn)
		e.PublishedOn = &p
	}
	return &e, nil
}

// CreateEvent inserts a new event and assigns its id.
func (q *queries) CreateEvent(ctx context.Context, e *model.Event) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO events (title, annotation, description, category_id, lat, lon, event_date,
		                     paid, participant_limit, request_moderation, state, created_on,
		                     published_on, initiator_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id`,
		e.Title, e.Annotation, e.Description, e.Category.ID, e.Location.Lat, e.Location.Lon, e.EventDate,
		e.Paid, e.ParticipantLimit, e.RequestModeration, string(e.State), e.CreatedOn,
		e.PublishedOn, e.Initiator.ID,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert event: %w", translate(err))
	}
	return nil
}

// GetEvent returns a single event or repository.ErrNotFound.
func (q *queries) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	return q.getEvent(ctx, id, false)
}

func (q *queries) getEvent(ctx context.Context, id int64, lock bool) (*model.Event, error) {
	qb := q.selectEvents().Where(sq.Eq{"e.id": id})
	if lock {
		// Only the event row is locked; the joined rows stay shared.
		qb = qb.Suffix("FOR UPDATE OF e")
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build event query: %w", err)
	}
	e, err := scanEvent(q.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translate(err)
	}
	return e, nil
}

// UpdateEvent overwrites every mutable column of e.
func (q *queries) UpdateEvent(ctx context.Context, e *model.Event) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE events
		 SET title = $2, annotation = $3, description = $4, category_id = $5, lat = $6, lon = $7,
		     event_date = $8, paid = $9, participant_limit = $10, request_moderation = $11,
		     state = $12, published_on = $13
		 WHERE id = $1`,
		e.ID, e.Title, e.Annotation, e.Description, e.Category.ID, e.Location.Lat, e.Location.Lon,
		e.EventDate, e.Paid, e.ParticipantLimit, e.RequestModeration,
		string(e.State), e.PublishedOn,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// FindEvents returns the events matching f.
func (q *queries) FindEvents(ctx context.Context, f repository.EventFilter) ([]model.Event, error) {
	qb := q.selectEvents()

	if len(f.Initiators) > 0 {
		qb = qb.Where(sq.Eq{"e.initiator_id": f.Initiators})
	}
	if len(f.States) > 0 {
		states := make([]string, len(f.States))
		for i, s := range f.States {
			states[i] = string(s)
		}
		qb = qb.Where(sq.Eq{"e.state": states})
	}
	if len(f.Categories) > 0 {
		qb = qb.Where(sq.Eq{"e.category_id": f.Categories})
	}
	if text := strings.TrimSpace(f.Text); text != "" {
		pattern := "%" + escapeLike(text) + "%"
		qb = qb.Where(sq.Or{
			sq.ILike{"e.title": pattern},
			sq.ILike{"e.annotation": pattern},
			sq.ILike{"e.description": pattern},
		})
	}
	if f.Paid != nil {
		qb = qb.Where(sq.Eq{"e.paid": *f.Paid})
	}
	if f.RangeStart != nil {
		qb = qb.Where(sq.GtOrEq{"e.event_date": *f.RangeStart})
	}
	if f.RangeEnd != nil {
		qb = qb.Where(sq.LtOrEq{"e.event_date": *f.RangeEnd})
	}
	if f.OnlyAvailable {
		qb = qb.Where(sq.Expr(
			`(e.participant_limit = 0 OR e.participant_limit > (
			    SELECT COUNT(*) FROM participation_requests pr
			    WHERE pr.event_id = e.id AND pr.status = ?))`,
			string(model.RequestConfirmed),
		))
	}

	switch f.Sort {
	case repository.SortByEventDate:
		qb = qb.OrderBy("e.event_date ASC", "e.id ASC")
	default:
		qb = qb.OrderBy("e.id ASC")
	}
	if f.Limit > 0 {
		qb = qb.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		qb = qb.Offset(uint64(f.Offset))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build events query: %w", err)
	}
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
