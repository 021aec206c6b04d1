package repository

import (
	"sync"
	"testing"
	"time"

	"chezben/internal/domain"
	"chezben/internal/models"
	"chezben/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreateIsIdempotentPerPair(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewConversationRepository(db)
	seller := testutil.CreateUser(t, db, "")
	buyer := testutil.CreateUser(t, db, "")
	l := testutil.CreateListing(t, db, seller.ID, "Toyota Corolla", domain.ListingActive)

	first, created, err := repo.FindOrCreate(l.ID, buyer.ID, seller.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, first.Participants, 2)

	second, created, err := repo.FindOrCreate(l.ID, seller.ID, buyer.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID, "participant order does not matter")

	other := testutil.CreateListing(t, db, seller.ID, "Moto", domain.ListingActive)
	third, created, err := repo.FindOrCreate(other.ID, buyer.ID, seller.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, third.ID, "one conversation per listing")
}

func TestFindOrCreateConcurrentCallersShareOneRow(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewConversationRepository(db)
	seller := testutil.CreateUser(t, db, "")
	buyer := testutil.CreateUser(t, db, "")
	l := testutil.CreateListing(t, db, seller.ID, "Frigo", domain.ListingActive)

	var wg sync.WaitGroup
	got := make([]uint, 8)
	errs := make([]error, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, _, err := repo.FindOrCreate(l.ID, buyer.ID, seller.ID)
			errs[i] = err
			if conv != nil {
				got[i] = conv.ID
			}
		}(i)
	}
	wg.Wait()
	for i := range got {
		require.NoError(t, errs[i])
		assert.Equal(t, got[0], got[i])
	}
	var n int64
	require.NoError(t, db.Model(&models.Conversation{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestMessagesUnreadAndOrdering(t *testing.T) {
	db := testutil.NewDB(t)
	convs := NewConversationRepository(db)
	msgs := NewMessageRepository(db)
	a := testutil.CreateUser(t, db, "")
	b := testutil.CreateUser(t, db, "")
	l := testutil.CreateListing(t, db, a.ID, "Toyota Corolla", domain.ListingActive)

	conv, _, err := convs.FindOrCreate(l.ID, b.ID, a.ID)
	require.NoError(t, err)

	t0 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, convs.AppendMessage(&models.Message{ConversationID: conv.ID, SenderID: b.ID, Content: "Bonjour"}, t0))
	require.NoError(t, convs.AppendMessage(&models.Message{ConversationID: conv.ID, SenderID: b.ID, Content: "Toujours dispo ?"}, t0.Add(time.Minute)))
	require.NoError(t, convs.AppendMessage(&models.Message{ConversationID: conv.ID, SenderID: a.ID, Content: "Oui"}, t0.Add(2*time.Minute)))

	reloaded, err := convs.GetByID(conv.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.UpdatedAt.Equal(t0.Add(2*time.Minute)))

	n, err := msgs.UnreadCount(a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	n, err = msgs.UnreadCount(b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err := msgs.ListByConversation(conv.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Bonjour", list[0].Content)
	assert.Equal(t, "Oui", list[2].Content)

	changed, err := msgs.MarkThreadRead(conv.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)
	changed, err = msgs.MarkThreadRead(conv.ID, a.ID)
	require.NoError(t, err)
	assert.Zero(t, changed, "marking read twice changes nothing")

	n, _ = msgs.UnreadCount(a.ID)
	assert.Zero(t, n)
	n, _ = msgs.UnreadCount(b.ID)
	assert.Equal(t, int64(1), n, "reader's own messages untouched")

	last, err := msgs.LastByConversation([]uint{conv.ID})
	require.NoError(t, err)
	assert.Equal(t, "Oui", last[conv.ID].Content)
}

func TestListForUserOrdersByActivity(t *testing.T) {
	db := testutil.NewDB(t)
	convs := NewConversationRepository(db)
	seller := testutil.CreateUser(t, db, "")
	buyer := testutil.CreateUser(t, db, "")
	l1 := testutil.CreateListing(t, db, seller.ID, "One", domain.ListingActive)
	l2 := testutil.CreateListing(t, db, seller.ID, "Two", domain.ListingActive)

	c1, _, err := convs.FindOrCreate(l1.ID, buyer.ID, seller.ID)
	require.NoError(t, err)
	c2, _, err := convs.FindOrCreate(l2.ID, buyer.ID, seller.ID)
	require.NoError(t, err)

	later := time.Now().Add(time.Hour)
	require.NoError(t, convs.AppendMessage(&models.Message{ConversationID: c1.ID, SenderID: buyer.ID, Content: "up"}, later))

	list, err := convs.ListForUser(seller.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, c1.ID, list[0].ID)
	assert.Equal(t, c2.ID, list[1].ID)

	ok, err := convs.IsParticipant(c1.ID, buyer.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	outsider := testutil.CreateUser(t, db, "")
	ok, err = convs.IsParticipant(c1.ID, outsider.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
