package service

import (
	"context"
	"testing"
	"time"

	"chezben/internal/domain"
	"chezben/internal/models"
	"chezben/internal/repository"
	"chezben/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConversationService(f *fixture, pusher Pusher) *ConversationService {
	return NewConversationService(
		repository.NewConversationRepository(f.db),
		repository.NewMessageRepository(f.db),
		f.listings,
		pusher,
		nil,
		f.metrics,
		f.log,
	).WithClock(f.clock.Now)
}

func TestConversationScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pusher := &recordingPusher{}
	svc := newConversationService(f, pusher)

	seller := testutil.CreateUser(t, f.db, "")
	buyer := testutil.CreateUser(t, f.db, "")
	l := testutil.CreateListing(t, f.db, seller.ID, "Toyota Corolla", domain.ListingActive)
	a, b := testutil.Caller(seller), testutil.Caller(buyer)

	conv, created, err := svc.Start(ctx, b, l.ID)
	require.NoError(t, err)
	assert.True(t, created)
	ids := []uint{conv.Participants[0].ID, conv.Participants[1].ID}
	assert.ElementsMatch(t, []uint{seller.ID, buyer.ID}, ids)

	_, err = svc.PostMessage(ctx, b, conv.ID, "Bonjour, toujours disponible ?")
	require.NoError(t, err)
	require.Len(t, pusher.to(seller.ID), 1)
	assert.Equal(t, PushMessageNew, pusher.to(seller.ID)[0].Type)

	again, created, err := svc.Start(ctx, b, l.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, conv.ID, again.ID)

	before, err := svc.UnreadCount(ctx, b)
	require.NoError(t, err)

	f.clock.Advance(3 * time.Minute)
	reply, err := svc.PostMessage(ctx, a, conv.ID, "Oui, passez demain.")
	require.NoError(t, err)
	assert.False(t, reply.IsRead)

	after, err := svc.UnreadCount(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	var stored models.Conversation
	require.NoError(t, f.db.First(&stored, conv.ID).Error)
	assert.WithinDuration(t, f.clock.Now(), stored.UpdatedAt, time.Second, "reply moves the conversation to the top")

	inbox, err := svc.List(ctx, a, 0, 0)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	require.NotNil(t, inbox[0].LastMessage)
	assert.Equal(t, "Oui, passez demain.", inbox[0].LastMessage.Content)
	assert.EqualValues(t, 1, inbox[0].UnreadCount, "seller has not opened the buyer's message")

	thread, err := svc.Messages(ctx, b, conv.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, buyer.ID, thread[0].SenderID, "oldest first")
	unread, err := svc.UnreadCount(ctx, b)
	require.NoError(t, err)
	assert.Zero(t, unread, "listing the thread marks it read")
}

func TestConversationGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newConversationService(f, &recordingPusher{})

	seller := testutil.CreateUser(t, f.db, "")
	buyer := testutil.CreateUser(t, f.db, "")
	outsider := testutil.CreateUser(t, f.db, "")
	l := testutil.CreateListing(t, f.db, seller.ID, "Frigo", domain.ListingActive)
	hidden := testutil.CreateListing(t, f.db, seller.ID, "Brouillon", domain.ListingDraft)

	t.Run("self conversation", func(t *testing.T) {
		_, _, err := svc.Start(ctx, testutil.Caller(seller), l.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidOperation)
	})

	t.Run("unknown or hidden listing", func(t *testing.T) {
		_, _, err := svc.Start(ctx, testutil.Caller(buyer), 9999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, _, err = svc.Start(ctx, testutil.Caller(buyer), hidden.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	conv, _, err := svc.Start(ctx, testutil.Caller(buyer), l.ID)
	require.NoError(t, err)

	t.Run("non participant cannot post", func(t *testing.T) {
		_, err := svc.PostMessage(ctx, testutil.Caller(outsider), conv.ID, "Salut")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		var n int64
		require.NoError(t, f.db.Model(&models.Message{}).Where("conversation_id = ?", conv.ID).Count(&n).Error)
		assert.Zero(t, n)
	})

	t.Run("non participant cannot read", func(t *testing.T) {
		_, err := svc.Messages(ctx, testutil.Caller(outsider), conv.ID, 0, 0)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := svc.PostMessage(ctx, testutil.Caller(buyer), conv.ID, "   ")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unknown conversation", func(t *testing.T) {
		_, err := svc.PostMessage(ctx, testutil.Caller(buyer), 9999, "Salut")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
