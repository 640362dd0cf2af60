// Package service implements the business logic of the event service: the
// event moderation lifecycle and participation-request admission. HTTP
// handlers call into it; it talks to persistence through repository.Store.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/apperror"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/repository"
)

// Default guard windows.
const (
	DefaultCreateGuard  = 2 * time.Hour
	DefaultPublishGuard = time.Hour
)

// StatsGateway supplies per-event view counts.
type StatsGateway interface {
	Views(ctx context.Context, events []model.Event) (map[int64]int64, error)
}

// Options configures the services. Zero values fall back to defaults.
type Options struct {
	// CreateGuard is the minimum lead time before an event's date when an
	// owner creates or edits it.
	CreateGuard time.Duration
	// PublishGuard is the minimum lead time when an admin publishes or edits.
	PublishGuard time.Duration
	Now          func() time.Time
	Logger       zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.CreateGuard <= 0 {
		o.CreateGuard = DefaultCreateGuard
	}
	if o.PublishGuard <= 0 {
		o.PublishGuard = DefaultPublishGuard
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// storeErr maps repository sentinels onto the apperror taxonomy. Errors that
// already carry a kind pass through untouched.
func storeErr(err error, what string, id int64) error {
	if err == nil || apperror.KindOf(err) != nil {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound("%s with id=%d was not found", what, id)
	case errors.Is(err, repository.ErrDuplicate):
		return apperror.Wrap(apperror.ErrConflict, err, "%s violates a uniqueness constraint", what)
	}
	return err
}

// counters holds the live decoration values of a batch of events.
type counters struct {
	confirmed map[int64]int64
	views     map[int64]int64
}

// decorate computes live confirmed counts from the request rows and asks the
// stats gateway for views. A failing gateway degrades views to zero.
func decorate(ctx context.Context, q repository.Querier, stats StatsGateway, log zerolog.Logger, events []model.Event) (counters, error) {
	c := counters{confirmed: map[int64]int64{}, views: map[int64]int64{}}
	if len(events) == 0 {
		return c, nil
	}
	ids := make([]int64, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		confirmed, err := q.CountConfirmed(gctx, ids)
		if err != nil {
			return err
		}
		c.confirmed = confirmed
		return nil
	})
	if stats != nil {
		g.Go(func() error {
			views, err := stats.Views(gctx, events)
			if err != nil {
				log.Warn().Err(err).Int("events", len(events)).Msg("stats gateway unavailable, views set to 0")
				return nil
			}
			c.views = views
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return counters{}, err
	}
	return c, nil
}

func (c counters) full(e model.Event) model.EventFullDto {
	return model.ToEventFullDto(e, c.confirmed[e.ID], c.views[e.ID])
}

func (c counters) short(e model.Event) model.EventShortDto {
	return model.ToEventShortDto(e, c.confirmed[e.ID], c.views[e.ID])
}

// Page is an offset/limit window.
type Page struct {
	From int
	Size int
}

func paginate[T any](items []T, p Page) []T {
	if p.From >= len(items) {
		return []T{}
	}
	items = items[p.From:]
	if p.Size > 0 && p.Size < len(items) {
		items = items[:p.Size]
	}
	return items
}
