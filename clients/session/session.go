package session

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

func (r *Repository) FindAll(ctx context.Context) ([]*model.Session, error) {
	var ret []*model.Session
	if err := r.db.WithContext(ctx).Order("id").Find(&ret).Error; err != nil {
		return nil, err
	}
	return ret, nil
}

func (r *Repository) Find(ctx context.Context, id int) (*model.Session, error) {
	var ret model.Session
	if err := r.db.WithContext(ctx).First(&ret, id).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

// Create inserts item and fills its ID.
func (r *Repository) Create(ctx context.Context, item *model.Session) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) Save(ctx context.Context, item model.Session) error {
	return r.db.WithContext(ctx).Save(&item).Error
}
