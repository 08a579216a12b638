package repository

import (
	"context"
	"errors"
	"time"

	"cbibank/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrFDNotFound      = errors.New("定期存款不存在")
	ErrFDStatusInvalid = errors.New("定期存款状态不合法")
)

type FDRepository struct {
	db *gorm.DB
}

func NewFDRepository(db *gorm.DB) *FDRepository {
	return &FDRepository{db: db}
}

func (r *FDRepository) Create(ctx context.Context, tx *gorm.DB, fd *model.FixedDeposit) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(fd).Error
}

// GetByIDForUser 按主键查询，同时校验归属人，避免越权读取他人存单
func (r *FDRepository) GetByIDForUser(ctx context.Context, id, userID int64) (*model.FixedDeposit, error) {
	var fd model.FixedDeposit
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&fd).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFDNotFound
		}
		return nil, err
	}
	return &fd, nil
}

func (r *FDRepository) ListByUserID(ctx context.Context, userID int64) ([]*model.FixedDeposit, error) {
	var fds []*model.FixedDeposit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&fds).Error
	return fds, err
}

// Settle 终态迁移：active -> broken / matured，同时写入实际兑付金额
//
// 【关键点】状态写进 WHERE 条件，重复支取/重复兑付时影响行数为 0，
// 第二次调用拿到状态不合法错误，余额不受影响
func (r *FDRepository) Settle(ctx context.Context, tx *gorm.DB, id int64, fromStatus, toStatus string, actualPayout decimal.Decimal) error {
	if !model.CanFDTransitionTo(fromStatus, toStatus) {
		return ErrFDStatusInvalid
	}

	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.FixedDeposit{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(map[string]interface{}{
			"status":        toStatus,
			"actual_payout": actualPayout,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrFDStatusInvalid
	}

	return nil
}

// GetMaturedActive 查询已过到期日但仍为 active 的存单，供到期扫描任务兑付
func (r *FDRepository) GetMaturedActive(ctx context.Context, before time.Time, limit int) ([]*model.FixedDeposit, error) {
	var fds []*model.FixedDeposit
	err := r.db.WithContext(ctx).
		Where("status = ? AND maturity_date <= ?", model.FDStatusActive, before).
		Limit(limit).
		Find(&fds).Error
	return fds, err
}
