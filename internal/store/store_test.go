package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/psds-microservice/support-relay/internal/errs"
	"github.com/psds-microservice/support-relay/internal/model"
	"github.com/psds-microservice/support-relay/internal/store"
	"github.com/psds-microservice/support-relay/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTicket(id int64) *model.Ticket {
	now := time.Now().UTC()
	return &model.Ticket{
		ID:                    id,
		RequesterID:           100 + id,
		RequesterChatID:       100 + id,
		RequesterDisplayName:  "Ann",
		InitialMessageSummary: "hello",
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

func TestAllocateNextID_EmptyStore(t *testing.T) {
	s := storetest.New(t)
	id, err := s.AllocateNextID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestAllocateNextID_IgnoresCloseState(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, s.InsertTicket(ctx, newTicket(id)))
	}
	require.NoError(t, s.SetClosed(ctx, 2, time.Now().UTC()))
	require.NoError(t, s.SetClosed(ctx, 3, time.Now().UTC()))

	id, err := s.AllocateNextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)
}

func TestInsertTicket_Duplicate(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	require.NoError(t, s.InsertTicket(ctx, newTicket(1)))
	err := s.InsertTicket(ctx, newTicket(1))
	assert.True(t, errors.Is(err, errs.ErrDuplicateID), "got %v", err)
}

func TestGetTicket_NotFound(t *testing.T) {
	s := storetest.New(t)
	_, err := s.GetTicket(context.Background(), 42)
	assert.ErrorIs(t, err, errs.ErrTicketNotFound)
}

func TestPartialUpdates(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	require.NoError(t, s.InsertTicket(ctx, newTicket(1)))

	require.NoError(t, s.UpdateCommentary(ctx, 1, "first\nsecond"))
	require.NoError(t, s.SetThreadAnchor(ctx, 1, 555))
	require.NoError(t, s.SetAnnouncement(ctx, 1, 77))
	require.NoError(t, s.SetClosed(ctx, 1, time.Now().UTC()))

	got, err := s.GetTicket(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond", got.StaffCommentary)
	require.NotNil(t, got.ThreadAnchorID)
	assert.Equal(t, int64(555), *got.ThreadAnchorID)
	require.NotNil(t, got.AnnouncementMessageID)
	assert.Equal(t, int64(77), *got.AnnouncementMessageID)
	assert.True(t, got.Closed)
	assert.NotNil(t, got.ClosedAt)
	assert.Equal(t, "Ann", got.RequesterDisplayName)
}

func TestPartialUpdates_NotFound(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	assert.ErrorIs(t, s.UpdateCommentary(ctx, 9, "x"), errs.ErrTicketNotFound)
	assert.ErrorIs(t, s.SetClosed(ctx, 9, time.Now()), errs.ErrTicketNotFound)
	assert.ErrorIs(t, s.SetThreadAnchor(ctx, 9, 1), errs.ErrTicketNotFound)
}

func TestActiveIndex(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	require.NoError(t, s.InsertTicket(ctx, newTicket(1)))

	_, ok, err := s.GetActiveTicketFor(ctx, 500)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetActive(ctx, 500, 1))
	id, ok, err := s.GetActiveTicketFor(ctx, 500)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)

	require.NoError(t, s.ClearActive(ctx, 500))
	_, ok, err = s.GetActiveTicketFor(ctx, 500)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTransaction_RollsBack(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx store.Store) error {
		id, err := tx.AllocateNextID(ctx)
		if err != nil {
			return err
		}
		if err := tx.InsertTicket(ctx, newTicket(id)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.GetTicket(ctx, 1)
	assert.ErrorIs(t, err, errs.ErrTicketNotFound)
}

func TestListTickets(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, s.InsertTicket(ctx, newTicket(id)))
	}
	require.NoError(t, s.SetClosed(ctx, 1, time.Now().UTC()))

	open := false
	items, total, err := s.ListTickets(ctx, store.Filter{Closed: &open}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, int64(3), items[0].ID)

	items, total, err = s.ListTickets(ctx, store.Filter{RequesterID: 102}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].ID)
}

func TestPendingForwards(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	require.NoError(t, s.InsertTicket(ctx, newTicket(1)))

	old := time.Now().UTC().Add(-time.Minute)
	fresh := time.Now().UTC()
	require.NoError(t, s.InsertPending(ctx, &model.PendingForward{TicketID: 1, ChatID: 101, Kind: "text", Payload: `{"body":"a"}`, CreatedAt: old}))
	require.NoError(t, s.InsertPending(ctx, &model.PendingForward{TicketID: 1, ChatID: 101, Kind: "text", Payload: `{"body":"b"}`, CreatedAt: fresh}))

	all, err := s.ListPendingFor(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, `{"body":"a"}`, all[0].Payload)

	stale, err := s.ListPendingBefore(ctx, fresh.Add(-30*time.Second))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, all[0].ID, stale[0].ID)

	require.NoError(t, s.DeletePending(ctx, stale[0].ID))
	all, err = s.ListPendingFor(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
