package repository

import (
	"chezben/internal/models"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// ListByConversation returns the thread in posting order.
func (r *MessageRepository) ListByConversation(conversationID uint, limit, offset int) ([]models.Message, error) {
	var list []models.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Preload("Sender").
		Order("created_at ASC").Order("id ASC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// MarkThreadRead flags every message not written by readerID as read.
func (r *MessageRepository) MarkThreadRead(conversationID, readerID uint) (int64, error) {
	res := r.db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		UpdateColumn("is_read", true)
	return res.RowsAffected, res.Error
}

// UnreadCount counts unread messages written by others across all of the user's conversations.
func (r *MessageRepository) UnreadCount(userID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.Message{}).
		Joins("JOIN conversation_participants cp ON cp.conversation_id = messages.conversation_id").
		Where("cp.user_id = ? AND messages.sender_id <> ? AND messages.is_read = ?", userID, userID, false).
		Count(&c).Error
	return c, err
}

// UnreadByConversation returns per-conversation unread counts for userID.
func (r *MessageRepository) UnreadByConversation(userID uint, conversationIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ConversationID uint
		Unread         int64
	}
	err := r.db.Model(&models.Message{}).
		Select("conversation_id, COUNT(*) AS unread").
		Where("conversation_id IN ? AND sender_id <> ? AND is_read = ?", conversationIDs, userID, false).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ConversationID] = row.Unread
	}
	return out, nil
}

// LastByConversation returns the newest message of each conversation.
func (r *MessageRepository) LastByConversation(conversationIDs []uint) (map[uint]models.Message, error) {
	out := make(map[uint]models.Message, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return out, nil
	}
	var list []models.Message
	err := r.db.Where("id IN (?)",
		r.db.Model(&models.Message{}).Select("MAX(id)").
			Where("conversation_id IN ?", conversationIDs).
			Group("conversation_id"),
	).Find(&list).Error
	if err != nil {
		return nil, err
	}
	for _, m := range list {
		out[m.ConversationID] = m
	}
	return out, nil
}

func (r *MessageRepository) Count() (int64, error) {
	var c int64
	err := r.db.Model(&models.Message{}).Count(&c).Error
	return c, err
}
