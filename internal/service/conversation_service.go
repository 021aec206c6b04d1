package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"chezben/internal/domain"
	"chezben/internal/events"
	"chezben/internal/metrics"
	"chezben/internal/models"
	"chezben/internal/repository"

	"go.uber.org/zap"
)

const (
	MaxMessageLength = 5000
	maxThreadPage    = 500
)

// Realtime event types pushed over the websocket.
const (
	PushMessageNew      = "message.new"
	PushNotificationNew = "notification.new"
)

type ConversationSummary struct {
	models.Conversation
	LastMessage *models.Message `json:"last_message"`
	UnreadCount int64           `json:"unread_count"`
}

type MessageEvent struct {
	ConversationID uint   `json:"conversation_id"`
	MessageID      uint   `json:"message_id"`
	SenderID       uint   `json:"sender_id"`
	RecipientID    uint   `json:"recipient_id"`
	ListingID      *uint  `json:"listing_id"`
	Preview        string `json:"preview"`
}

type ConversationService struct {
	conversations *repository.ConversationRepository
	messages      *repository.MessageRepository
	listings      *repository.ListingRepository
	pusher        Pusher
	events        events.Publisher
	metrics       *metrics.Metrics
	now           func() time.Time
	log           *zap.Logger
}

func NewConversationService(
	conversations *repository.ConversationRepository,
	messages *repository.MessageRepository,
	listings *repository.ListingRepository,
	pusher Pusher,
	pub events.Publisher,
	m *metrics.Metrics,
	log *zap.Logger,
) *ConversationService {
	if pub == nil {
		pub = events.Noop{}
	}
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		listings:      listings,
		pusher:        pusher,
		events:        pub,
		metrics:       m,
		now:           time.Now,
		log:           log,
	}
}

func (s *ConversationService) WithClock(now func() time.Time) *ConversationService {
	s.now = now
	return s
}

// Start returns the conversation between the caller and the listing owner, creating it
// on first contact. Repeated calls return the same conversation.
func (s *ConversationService) Start(ctx context.Context, caller domain.Caller, listingID uint) (*models.Conversation, bool, error) {
	l, err := s.listings.FindVisible(caller, listingID)
	if err != nil {
		return nil, false, notFoundAs(err, "listing")
	}
	if l.UserID == caller.UserID {
		return nil, false, fmt.Errorf("%w: cannot start a conversation with yourself", domain.ErrInvalidOperation)
	}
	conv, created, err := s.conversations.FindOrCreate(l.ID, caller.UserID, l.UserID)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.metrics.ConversationsCreated.Inc()
		s.publish(ctx, events.SubjectConversationStarted, map[string]interface{}{
			"conversation_id": conv.ID,
			"listing_id":      l.ID,
			"buyer_id":        caller.UserID,
			"seller_id":       l.UserID,
		})
	}
	return conv, created, nil
}

// participant loads the conversation and checks membership. Unknown conversations
// are NotFound; known ones the caller is not part of are Forbidden.
func (s *ConversationService) participant(conversationID, userID uint) (*models.Conversation, error) {
	conv, err := s.conversations.GetByID(conversationID)
	if err != nil {
		return nil, notFoundAs(err, "conversation")
	}
	for _, p := range conv.Participants {
		if p.ID == userID {
			return conv, nil
		}
	}
	return nil, forbidden("you are not a participant in this conversation")
}

func (s *ConversationService) PostMessage(ctx context.Context, caller domain.Caller, conversationID uint, content string) (*models.Message, error) {
	conv, err := s.participant(conversationID, caller.UserID)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("content is required")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, invalid("content exceeds %d characters", MaxMessageLength)
	}

	msg := &models.Message{ConversationID: conv.ID, SenderID: caller.UserID, Content: content}
	if err := s.conversations.AppendMessage(msg, s.now()); err != nil {
		return nil, err
	}
	s.metrics.MessagesPosted.Inc()

	for _, p := range conv.Participants {
		if p.ID == caller.UserID {
			continue
		}
		sender := findUser(conv.Participants, caller.UserID)
		msg.Sender = sender
		s.pusher.Push(p.ID, PushMessageNew, msg)
		s.publish(ctx, events.SubjectMessagePosted, MessageEvent{
			ConversationID: conv.ID,
			MessageID:      msg.ID,
			SenderID:       caller.UserID,
			RecipientID:    p.ID,
			ListingID:      conv.ListingID,
			Preview:        preview(content, 80),
		})
	}
	return msg, nil
}

// Messages returns the thread oldest first and marks the other side's messages read.
// Callers outside the conversation get NotFound.
func (s *ConversationService) Messages(ctx context.Context, caller domain.Caller, conversationID uint, limit, offset int) ([]models.Message, error) {
	ok, err := s.conversations.IsParticipant(conversationID, caller.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: conversation not found", domain.ErrNotFound)
	}
	if _, err := s.messages.MarkThreadRead(conversationID, caller.UserID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxThreadPage {
		limit = maxThreadPage
	}
	if offset < 0 {
		offset = 0
	}
	return s.messages.ListByConversation(conversationID, limit, offset)
}

func (s *ConversationService) MarkRead(ctx context.Context, caller domain.Caller, conversationID uint) (int64, error) {
	if _, err := s.participant(conversationID, caller.UserID); err != nil {
		return 0, err
	}
	return s.messages.MarkThreadRead(conversationID, caller.UserID)
}

func (s *ConversationService) UnreadCount(ctx context.Context, caller domain.Caller) (int64, error) {
	return s.messages.UnreadCount(caller.UserID)
}

// List returns the caller's inbox, most recently active conversation first.
func (s *ConversationService) List(ctx context.Context, caller domain.Caller, limit, offset int) ([]ConversationSummary, error) {
	limit, offset = ClampPage(limit, offset)
	convs, err := s.conversations.ListForUser(caller.UserID, limit, offset)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(convs))
	for _, c := range convs {
		ids = append(ids, c.ID)
	}
	last, err := s.messages.LastByConversation(ids)
	if err != nil {
		return nil, err
	}
	unread, err := s.messages.UnreadByConversation(caller.UserID, ids)
	if err != nil {
		return nil, err
	}
	out := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		sum := ConversationSummary{Conversation: c, UnreadCount: unread[c.ID]}
		if m, ok := last[c.ID]; ok {
			m := m
			sum.LastMessage = &m
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *ConversationService) publish(ctx context.Context, subject string, data interface{}) {
	if err := s.events.Publish(ctx, subject, data); err != nil {
		s.log.Warn("publishing event failed", zap.String("subject", subject), zap.Error(err))
	}
}

func findUser(users []models.User, id uint) *models.User {
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	return nil
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
