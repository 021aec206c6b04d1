package repository

import (
	"errors"
	"time"

	"chezben/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errPairTaken = errors.New("conversation pair already exists")

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) findByPair(listingID uint, key string) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.Preload("Participants").
		Where("listing_id = ? AND participant_key = ?", listingID, key).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindOrCreate returns the conversation about listingID between a and b, creating it
// with both participants when none exists. The unique (listing_id, participant_key)
// index arbitrates concurrent creators; the loser re-reads the winner's row.
func (r *ConversationRepository) FindOrCreate(listingID, a, b uint) (*models.Conversation, bool, error) {
	key := models.PairKey(a, b)
	conv, err := r.findByPair(listingID, key)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	lid := listingID
	created := &models.Conversation{ListingID: &lid, ParticipantKey: key}
	err = r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(created)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errPairTaken
		}
		rows := []models.ConversationParticipant{
			{ConversationID: created.ID, UserID: a},
			{ConversationID: created.ID, UserID: b},
		}
		return tx.Create(&rows).Error
	})
	if errors.Is(err, errPairTaken) || errors.Is(err, gorm.ErrDuplicatedKey) {
		conv, err = r.findByPair(listingID, key)
		return conv, false, err
	}
	if err != nil {
		return nil, false, err
	}
	conv, err = r.GetByID(created.ID)
	return conv, true, err
}

func (r *ConversationRepository) GetByID(id uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.Preload("Participants").First(&conv, id).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *ConversationRepository) IsParticipant(conversationID, userID uint) (bool, error) {
	var c int64
	err := r.db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&c).Error
	return c > 0, err
}

func (r *ConversationRepository) ParticipantIDs(conversationID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ?", conversationID).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

// ListForUser returns the user's conversations, most recently active first.
func (r *ConversationRepository) ListForUser(userID uint, limit, offset int) ([]models.Conversation, error) {
	var list []models.Conversation
	err := r.db.
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Preload("Participants").
		Preload("Listing").
		Preload("Listing.Photos", func(db *gorm.DB) *gorm.DB { return db.Order("is_main DESC, id ASC") }).
		Order("conversations.updated_at DESC").Order("conversations.id DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

func (r *ConversationRepository) Count() (int64, error) {
	var c int64
	err := r.db.Model(&models.Conversation{}).Count(&c).Error
	return c, err
}

// AppendMessage stores m and moves the conversation's updated_at to the message time.
func (r *ConversationRepository) AppendMessage(m *models.Message, at time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		m.CreatedAt = at
		m.IsRead = false
		if err := tx.Omit(clause.Associations).Create(m).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).Where("id = ?", m.ConversationID).
			UpdateColumn("updated_at", at).Error
	})
}
