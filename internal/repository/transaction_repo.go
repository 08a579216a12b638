package repository

import (
	"context"
	"errors"
	"time"

	"cbibank/internal/model"

	"gorm.io/gorm"
)

var ErrTransactionNotFound = errors.New("交易不存在")

// TransactionFilter 流水查询条件
// Type 为空或 "all" 表示不过滤方向；时间区间闭区间，零值跳过
type TransactionFilter struct {
	Type      string
	StartDate time.Time
	EndDate   time.Time
}

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *gorm.DB, trans *model.Transaction) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(trans).Error
}

// GetByIDForUser 按主键查询，同时校验归属人
func (r *TransactionRepository) GetByIDForUser(ctx context.Context, id, userID int64) (*model.Transaction, error) {
	var trans model.Transaction
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&trans).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &trans, nil
}

// ListByAccountID 分页查询账户流水，最新在前
func (r *TransactionRepository) ListByAccountID(ctx context.Context, accountID int64, filter TransactionFilter, page, pageSize int) ([]*model.Transaction, int64, error) {
	var transactions []*model.Transaction
	var total int64

	query := r.filteredQuery(ctx, accountID, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error

	return transactions, total, err
}

// ListAllByAccountID 不分页全量查询，供对账单导出使用
func (r *TransactionRepository) ListAllByAccountID(ctx context.Context, accountID int64, filter TransactionFilter) ([]*model.Transaction, error) {
	var transactions []*model.Transaction
	err := r.filteredQuery(ctx, accountID, filter).
		Order("created_at DESC").
		Find(&transactions).Error
	return transactions, err
}

// ListSince 查询某时点之后的全部流水，供统计使用
func (r *TransactionRepository) ListSince(ctx context.Context, accountID int64, since time.Time) ([]*model.Transaction, error) {
	var transactions []*model.Transaction
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND created_at >= ?", accountID, since).
		Order("created_at ASC").
		Find(&transactions).Error
	return transactions, err
}

func (r *TransactionRepository) filteredQuery(ctx context.Context, accountID int64, filter TransactionFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.Transaction{}).Where("account_id = ?", accountID)

	if filter.Type != "" && filter.Type != "all" {
		query = query.Where("type = ?", filter.Type)
	}
	if !filter.StartDate.IsZero() && !filter.EndDate.IsZero() {
		query = query.Where("created_at BETWEEN ? AND ?", filter.StartDate, filter.EndDate)
	}

	return query
}
