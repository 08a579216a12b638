package repository

import (
	"context"
	"errors"
	"time"

	"cbibank/internal/model"

	"gorm.io/gorm"
)

var ErrCardNotFound = errors.New("卡片不存在")

type ATMRepository struct {
	db *gorm.DB
}

func NewATMRepository(db *gorm.DB) *ATMRepository {
	return &ATMRepository{db: db}
}

func (r *ATMRepository) Create(ctx context.Context, card *model.ATMCard) error {
	return r.db.WithContext(ctx).Create(card).Error
}

func (r *ATMRepository) GetByIDForUser(ctx context.Context, id, userID int64) (*model.ATMCard, error) {
	var card model.ATMCard
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return &card, nil
}

func (r *ATMRepository) ListByUserID(ctx context.Context, userID int64) ([]*model.ATMCard, error) {
	var cards []*model.ATMCard
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&cards).Error
	return cards, err
}

// HasPendingOrActive 一人同时只允许一张在途或有效卡片
func (r *ATMRepository) HasPendingOrActive(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ATMCard{}).
		Where("user_id = ? AND status IN ?", userID, []string{model.CardStatusRequested, model.CardStatusDelivered, model.CardStatusActive}).
		Count(&count).Error
	return count > 0, err
}

func (r *ATMRepository) Update(ctx context.Context, card *model.ATMCard) error {
	return r.db.WithContext(ctx).Save(card).Error
}

// GetRequestedBefore 查询申请超过制卡周期仍未送达的卡片，供送达扫描任务使用
func (r *ATMRepository) GetRequestedBefore(ctx context.Context, before time.Time, limit int) ([]*model.ATMCard, error) {
	var cards []*model.ATMCard
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at <= ?", model.CardStatusRequested, before).
		Limit(limit).
		Find(&cards).Error
	return cards, err
}

// MarkDelivered 标记卡片已送达（requested -> delivered）
// 状态写进 WHERE 条件，重复扫描不会回退已激活的卡片
func (r *ATMRepository) MarkDelivered(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.ATMCard{}).
		Where("id = ? AND status = ?", id, model.CardStatusRequested).
		Update("status", model.CardStatusDelivered)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCardNotFound
	}
	return nil
}
