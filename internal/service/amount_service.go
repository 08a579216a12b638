package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cbibank/internal/config"
	"cbibank/internal/infrastructure/lock"
	"cbibank/internal/model"
	"cbibank/internal/repository"
	"cbibank/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidAmount     = errors.New("金额必须大于0")
	ErrAmountExceedLimit = errors.New("超出单笔限额")
	ErrSystemBusy        = errors.New("系统繁忙，请稍后重试")
)

type AmountService struct {
	db              *gorm.DB
	redisClient     *redis.Client
	cfg             *config.Config
	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
	outboxRepo      *repository.OutboxRepository
}

func NewAmountService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *AmountService {
	return &AmountService{
		db:              db,
		redisClient:     redisClient,
		cfg:             cfg,
		accountRepo:     repository.NewAccountRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		outboxRepo:      repository.NewOutboxRepository(db),
	}
}

type AmountResponse struct {
	TransactionNo string          `json:"transaction_no"`
	AccountNumber string          `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"` // 操作后余额
}

// Add 存入
func (s *AmountService) Add(ctx context.Context, userID int64, amount decimal.Decimal, description string) (*AmountResponse, error) {
	if err := s.checkAmount(amount); err != nil {
		return nil, err
	}

	// 同一用户的资金操作串行化
	moneyLock := lock.NewMoneyLock(s.redisClient, userID, idgen.GenerateTransactionNo())
	if err := moneyLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, ErrSystemBusy
	}
	defer moneyLock.Unlock(ctx)

	if description == "" {
		description = "存入"
	}

	var resp *AmountResponse
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// 锁行读，拿到入账前余额
		account, err := s.accountRepo.GetByUserIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		if err := s.accountRepo.Increase(ctx, tx, userID, amount); err != nil {
			return fmt.Errorf("入账失败: %w", err)
		}

		balanceAfter := account.Balance.Add(amount)
		trans := &model.Transaction{
			TransactionNo: idgen.GenerateTransactionNo(),
			UserID:        userID,
			AccountID:     account.ID,
			Type:          model.TransactionTypeCredit,
			Amount:        amount,
			Description:   description,
			Status:        model.TransactionStatusCompleted,
			BalanceAfter:  balanceAfter,
		}
		if err := s.transactionRepo.Create(ctx, tx, trans); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}

		if err := s.appendTransactionEvent(ctx, tx, trans); err != nil {
			return err
		}

		resp = &AmountResponse{
			TransactionNo: trans.TransactionNo,
			AccountNumber: account.AccountNumber,
			Amount:        amount,
			Balance:       balanceAfter,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("存入成功: userID=%d, amount=%s, balance=%s", userID, amount, resp.Balance)
	return resp, nil
}

// Deduct 取出
//
// 【关键点】扣款走条件更新（balance >= amount AND version = ?）：
// 余额不足和并发冲突都由影响行数区分，余额永远不为负
func (s *AmountService) Deduct(ctx context.Context, userID int64, amount decimal.Decimal, description string) (*AmountResponse, error) {
	if err := s.checkAmount(amount); err != nil {
		return nil, err
	}

	moneyLock := lock.NewMoneyLock(s.redisClient, userID, idgen.GenerateTransactionNo())
	if err := moneyLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, ErrSystemBusy
	}
	defer moneyLock.Unlock(ctx)

	account, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if account.Balance.LessThan(amount) {
		return nil, repository.ErrBalanceNotEnough
	}

	if description == "" {
		description = "取出"
	}

	var resp *AmountResponse
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.accountRepo.Deduct(ctx, tx, userID, amount, account.Version); err != nil {
			return err
		}

		balanceAfter := account.Balance.Sub(amount)
		trans := &model.Transaction{
			TransactionNo: idgen.GenerateTransactionNo(),
			UserID:        userID,
			AccountID:     account.ID,
			Type:          model.TransactionTypeDebit,
			Amount:        amount,
			Description:   description,
			Status:        model.TransactionStatusCompleted,
			BalanceAfter:  balanceAfter,
		}
		if err := s.transactionRepo.Create(ctx, tx, trans); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}

		if err := s.appendTransactionEvent(ctx, tx, trans); err != nil {
			return err
		}

		resp = &AmountResponse{
			TransactionNo: trans.TransactionNo,
			AccountNumber: account.AccountNumber,
			Amount:        amount,
			Balance:       balanceAfter,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("取出成功: userID=%d, amount=%s, balance=%s", userID, amount, resp.Balance)
	return resp, nil
}

// GetBalance 查询余额
func (s *AmountService) GetBalance(ctx context.Context, userID int64) (*model.Account, error) {
	return s.accountRepo.GetByUserID(ctx, userID)
}

func (s *AmountService) checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.GreaterThan(decimal.NewFromFloat(s.cfg.Business.MaxAmountPerOp)) {
		return ErrAmountExceedLimit
	}
	return nil
}

// appendTransactionEvent 交易提醒事件，与流水同事务落库
func (s *AmountService) appendTransactionEvent(ctx context.Context, tx *gorm.DB, trans *model.Transaction) error {
	payload := map[string]interface{}{
		"transaction_no": trans.TransactionNo,
		"user_id":        trans.UserID,
		"type":           trans.Type,
		"amount":         trans.Amount,
		"balance_after":  trans.BalanceAfter,
		"created_at":     time.Now().Format(time.RFC3339),
	}
	if err := s.outboxRepo.Append(ctx, tx, model.EventTypeTransaction,
		s.cfg.Kafka.Topic.Transaction, trans.TransactionNo, payload); err != nil {
		return fmt.Errorf("写入交易事件失败: %w", err)
	}
	return nil
}
