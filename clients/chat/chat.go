package chat

import (
	"context"

	"gorm.io/gorm"

	"gptchat/clients/model"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) (*Repository, error) {
	return &Repository{
		db: db,
	}, nil
}

func (r *Repository) FindBySessionID(ctx context.Context, sessionID int) ([]*model.Chat, error) {
	var ret []*model.Chat
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id").Find(&ret).Error; err != nil {
		return nil, err
	}
	return ret, nil
}

// Save inserts chat when its ID is zero and fills the ID, otherwise updates every column.
func (r *Repository) Save(ctx context.Context, chat *model.Chat) error {
	return r.db.WithContext(ctx).Save(chat).Error
}
