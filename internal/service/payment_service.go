package service

import (
	"context"
	"encoding/json"
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
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrPaymentOrderNotFound = errors.New("支付订单不存在或已过期")
	ErrPaymentOrderMismatch = errors.New("支付订单与当前用户不匹配")
)

// paymentOrderTTL 未支付订单的有效期，过期自动失效
const paymentOrderTTL = 15 * time.Minute

// PaymentService 模拟支付网关充值
//
// 真实网关接入前的演示实现：initiate 生成订单，verify 无条件视为支付成功。
// 订单暂存 Redis 并带过期时间，verify 用 GETDEL 语义消费，天然防重复入账
type PaymentService struct {
	db              *gorm.DB
	redisClient     *redis.Client
	cfg             *config.Config
	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
	outboxRepo      *repository.OutboxRepository
}

func NewPaymentService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *PaymentService {
	return &PaymentService{
		db:              db,
		redisClient:     redisClient,
		cfg:             cfg,
		accountRepo:     repository.NewAccountRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		outboxRepo:      repository.NewOutboxRepository(db),
	}
}

// paymentOrder Redis 中暂存的订单
type paymentOrder struct {
	OrderID string          `json:"order_id"`
	UserID  int64           `json:"user_id"`
	Amount  decimal.Decimal `json:"amount"`
}

type InitiateResponse struct {
	OrderID     string `json:"order_id"`
	AmountPaise int64  `json:"amount_paise"` // 网关按最小货币单位计价
	Currency    string `json:"currency"`
}

// Initiate 发起充值，生成网关订单
func (s *PaymentService) Initiate(ctx context.Context, userID int64, amount decimal.Decimal) (*InitiateResponse, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if amount.GreaterThan(decimal.NewFromFloat(s.cfg.Business.MaxAmountPerOp)) {
		return nil, ErrAmountExceedLimit
	}

	order := &paymentOrder{
		OrderID: fmt.Sprintf("order_%s", uuid.NewString()),
		UserID:  userID,
		Amount:  amount,
	}

	data, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("序列化订单失败: %w", err)
	}

	if err := s.redisClient.Set(ctx, paymentOrderKey(order.OrderID), data, paymentOrderTTL).Err(); err != nil {
		return nil, fmt.Errorf("暂存订单失败: %w", err)
	}

	log.Printf("发起充值: userID=%d, orderID=%s, amount=%s", userID, order.OrderID, amount)

	return &InitiateResponse{
		OrderID:     order.OrderID,
		AmountPaise: amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency:    "INR",
	}, nil
}

// Verify 确认支付并入账
//
// 【关键点】先 GETDEL 消费订单再入账：同一订单重复 verify，
// 第二次拿不到订单直接报错，不会重复加钱
func (s *PaymentService) Verify(ctx context.Context, userID int64, orderID, paymentID string) (*AmountResponse, error) {
	data, err := s.redisClient.GetDel(ctx, paymentOrderKey(orderID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrPaymentOrderNotFound
		}
		return nil, fmt.Errorf("读取订单失败: %w", err)
	}

	var order paymentOrder
	if err := json.Unmarshal([]byte(data), &order); err != nil {
		return nil, fmt.Errorf("解析订单失败: %w", err)
	}

	if order.UserID != userID {
		return nil, ErrPaymentOrderMismatch
	}

	moneyLock := lock.NewMoneyLock(s.redisClient, userID, orderID)
	if err := moneyLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, ErrSystemBusy
	}
	defer moneyLock.Unlock(ctx)

	var resp *AmountResponse
	err = s.db.Transaction(func(tx *gorm.DB) error {
		account, err := s.accountRepo.GetByUserIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		if err := s.accountRepo.Increase(ctx, tx, userID, order.Amount); err != nil {
			return fmt.Errorf("入账失败: %w", err)
		}

		balanceAfter := account.Balance.Add(order.Amount)
		trans := &model.Transaction{
			TransactionNo: idgen.GenerateTransactionNo(),
			UserID:        userID,
			AccountID:     account.ID,
			Type:          model.TransactionTypeCredit,
			Amount:        order.Amount,
			Description:   fmt.Sprintf("网关充值 %s", orderID),
			Status:        model.TransactionStatusCompleted,
			PaymentID:     paymentID,
			BalanceAfter:  balanceAfter,
		}
		if err := s.transactionRepo.Create(ctx, tx, trans); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}

		payload := map[string]interface{}{
			"transaction_no": trans.TransactionNo,
			"user_id":        userID,
			"type":           trans.Type,
			"amount":         order.Amount,
			"balance_after":  balanceAfter,
			"payment_id":     paymentID,
		}
		if err := s.outboxRepo.Append(ctx, tx, model.EventTypeTransaction,
			s.cfg.Kafka.Topic.Transaction, trans.TransactionNo, payload); err != nil {
			return fmt.Errorf("写入交易事件失败: %w", err)
		}

		resp = &AmountResponse{
			TransactionNo: trans.TransactionNo,
			AccountNumber: account.AccountNumber,
			Amount:        order.Amount,
			Balance:       balanceAfter,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("充值到账: userID=%d, orderID=%s, amount=%s", userID, orderID, order.Amount)
	return resp, nil
}

func paymentOrderKey(orderID string) string {
	return fmt.Sprintf("payment:order:%s", orderID)
}
