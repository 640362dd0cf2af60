package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/database"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/logger"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/repository"
)

// newTestStore connects to EWM_TEST_DATABASE_URL and starts from empty
// tables. The tests are skipped when the variable is unset.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("EWM_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("EWM_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := database.NewPool(ctx, database.Config{DSN: dsn, MaxConns: 16}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = database.Migrate(ctx, pool)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE participation_requests, events, categories, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return New(pool)
}

func seedEvent(t *testing.T, s *Store, limit int) (owner model.User, ev model.Event) {
	t.Helper()
	ctx := context.Background()
	owner = model.User{Name: "owner", Email: "owner@example.com"}
	require.NoError(t, s.CreateUser(ctx, &owner))
	cat := model.Category{Name: "concerts"}
	require.NoError(t, s.CreateCategory(ctx, &cat))

	now := model.Truncate(time.Now())
	ev = model.Event{
		Title:            "River concert",
		Annotation:       "An evening of open air music by the river",
		Description:      "Bring a blanket; the concert lasts about three hours.",
		Category:         cat,
		Location:         model.Location{Lat: 55.75, Lon: 37.62},
		EventDate:        now.Add(48 * time.Hour),
		ParticipantLimit: limit,
		State:            model.EventPublished,
		CreatedOn:        now,
		PublishedOn:      &now,
		Initiator:        owner,
	}
	require.NoError(t, s.CreateEvent(ctx, &ev))
	return owner, ev
}

func guests(t *testing.T, s *Store, n int) []model.User {
	t.Helper()
	out := make([]model.User, n)
	for i := range out {
		out[i] = model.User{Name: "guest", Email: "guest" + string(rune('a'+i)) + "@example.com"}
		require.NoError(t, s.CreateUser(context.Background(), &out[i]))
	}
	return out
}

func TestEventRoundTrip(t *testing.T) {
	s := newTestStore(t)
	_, ev := seedEvent(t, s, 3)

	got, err := s.GetEvent(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev.Title, got.Title)
	assert.Equal(t, "concerts", got.Category.Name)
	assert.Equal(t, "owner", got.Initiator.Name)
	assert.True(t, ev.EventDate.Equal(got.EventDate))
	require.NotNil(t, got.PublishedOn)

	_, err = s.GetEvent(context.Background(), ev.ID+100)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDuplicateActiveRequest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, ev := seedEvent(t, s, 0)
	g := guests(t, s, 1)[0]

	first := model.ParticipationRequest{EventID: ev.ID, RequesterID: g.ID, Created: time.Now(), Status: model.RequestPending}
	require.NoError(t, s.CreateRequest(ctx, &first))
	second := first
	assert.ErrorIs(t, s.CreateRequest(ctx, &second), repository.ErrDuplicate)

	require.NoError(t, s.SetRequestStatus(ctx, []int64{first.ID}, model.RequestCanceled))
	assert.NoError(t, s.CreateRequest(ctx, &second))
}

func TestWithEventLockRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, ev := seedEvent(t, s, 0)
	g := guests(t, s, 1)[0]

	err := s.WithEventLock(ctx, ev.ID, func(q repository.Querier, locked *model.Event) error {
		r := model.ParticipationRequest{EventID: locked.ID, RequesterID: g.ID, Created: time.Now(), Status: model.RequestConfirmed}
		require.NoError(t, q.CreateRequest(ctx, &r))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	counts, err := s.CountConfirmed(ctx, []int64{ev.ID})
	require.NoError(t, err)
	assert.Zero(t, counts[ev.ID])
}

func TestWithEventLockSerializesAdmission(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, ev := seedEvent(t, s, 2)
	gs := guests(t, s, 10)

	var wg sync.WaitGroup
	for _, g := range gs {
		wg.Add(1)
		go func(requester int64) {
			defer wg.Done()
			_ = s.WithEventLock(ctx, ev.ID, func(q repository.Querier, locked *model.Event) error {
				counts, err := q.CountConfirmed(ctx, []int64{locked.ID})
				if err != nil {
					return err
				}
				if !locked.HasCapacity(counts[locked.ID]) {
					return nil
				}
				r := model.ParticipationRequest{EventID: locked.ID, RequesterID: requester, Created: time.Now(), Status: model.RequestConfirmed}
				return q.CreateRequest(ctx, &r)
			})
		}(g.ID)
	}
	wg.Wait()

	counts, err := s.CountConfirmed(ctx, []int64{ev.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[ev.ID])
}

func TestFindEventsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner, ev := seedEvent(t, s, 1)

	paid := true
	got, err := s.FindEvents(ctx, repository.EventFilter{
		Initiators: []int64{owner.ID},
		States:     []model.EventState{model.EventPublished},
		Text:       "RIVER",
		Limit:      10,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ev.ID, got[0].ID)

	got, err = s.FindEvents(ctx, repository.EventFilter{Paid: &paid})
	require.NoError(t, err)
	assert.Empty(t, got)

	g := guests(t, s, 1)[0]
	r := model.ParticipationRequest{EventID: ev.ID, RequesterID: g.ID, Created: time.Now(), Status: model.RequestConfirmed}
	require.NoError(t, s.CreateRequest(ctx, &r))
	got, err = s.FindEvents(ctx, repository.EventFilter{OnlyAvailable: true})
	require.NoError(t, err)
	assert.Empty(t, got)
}
