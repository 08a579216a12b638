package repository

import (
	"context"
	"errors"

	"cbibank/internal/model"

	"gorm.io/gorm"
)

var ErrTicketNotFound = errors.New("工单不存在")

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, tx *gorm.DB, ticket *model.ContactTicket) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(ticket).Error
}

func (r *ContactRepository) GetByTicketNumber(ctx context.Context, ticketNumber string) (*model.ContactTicket, error) {
	var ticket model.ContactTicket
	err := r.db.WithContext(ctx).Where("ticket_number = ?", ticketNumber).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *ContactRepository) GetByID(ctx context.Context, id int64) (*model.ContactTicket, error) {
	var ticket model.ContactTicket
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *ContactRepository) ListByUserID(ctx context.Context, userID int64) ([]*model.ContactTicket, error) {
	var tickets []*model.ContactTicket
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tickets).Error
	return tickets, err
}

// ListAll 管理端工单列表，status 为空时不过滤
func (r *ContactRepository) ListAll(ctx context.Context, status string, page, pageSize int) ([]*model.ContactTicket, int64, error) {
	var tickets []*model.ContactTicket
	var total int64

	query := r.db.WithContext(ctx).Model(&model.ContactTicket{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&tickets).Error

	return tickets, total, err
}

func (r *ContactRepository) Update(ctx context.Context, tx *gorm.DB, ticket *model.ContactTicket) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Save(ticket).Error
}
