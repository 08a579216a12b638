package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cbibank/internal/config"
	"cbibank/internal/infrastructure/lock"
	"cbibank/internal/interest"
	"cbibank/internal/model"
	"cbibank/internal/repository"
	"cbibank/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrFDAmountOutOfRange = errors.New("存款金额不在允许范围内")
	ErrFDTenureOutOfRange = errors.New("存期不在允许范围内")
	ErrFDNotActive        = errors.New("存单不在存续状态")
)

// FDService 定期存款服务
//
// 开立和支取都是资金操作，与存入/取出共用同一把用户级资金锁
type FDService struct {
	db              *gorm.DB
	redisClient     *redis.Client
	cfg             *config.Config
	fdRepo          *repository.FDRepository
	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
	outboxRepo      *repository.OutboxRepository
}

func NewFDService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *FDService {
	return &FDService{
		db:              db,
		redisClient:     redisClient,
		cfg:             cfg,
		fdRepo:          repository.NewFDRepository(db),
		accountRepo:     repository.NewAccountRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		outboxRepo:      repository.NewOutboxRepository(db),
	}
}

type FDResponse struct {
	ID             int64               `json:"id"`
	FDNumber       string              `json:"fd_number"`
	Amount         decimal.Decimal     `json:"amount"`
	Tenure         int                 `json:"tenure"`
	InterestRate   decimal.Decimal     `json:"interest_rate"`
	MaturityAmount decimal.Decimal     `json:"maturity_amount"`
	ActualPayout   decimal.NullDecimal `json:"actual_payout"`
	StartDate      time.Time           `json:"start_date"`
	MaturityDate   time.Time           `json:"maturity_date"`
	Status         string              `json:"status"`
}

// FDDetailResponse 存单详情，附带按当前时点计算的估值字段
type FDDetailResponse struct {
	FDResponse
	ElapsedDays   int             `json:"elapsed_days"`
	RemainingDays int             `json:"remaining_days"`
	CurrentValue  decimal.Decimal `json:"current_value"`
}

// Create 开立定期存款
//
// 【关键点】利率和到期金额在开立时算定并冻结，后续利率档位调整不影响存量存单
func (s *FDService) Create(ctx context.Context, userID int64, amount decimal.Decimal, tenure int) (*FDResponse, error) {
	minAmount := decimal.NewFromFloat(s.cfg.Business.MinFDAmount)
	maxAmount := decimal.NewFromFloat(s.cfg.Business.MaxFDAmount)
	if amount.LessThan(minAmount) || amount.GreaterThan(maxAmount) {
		return nil, ErrFDAmountOutOfRange
	}
	if tenure < s.cfg.Business.MinFDTenure || tenure > s.cfg.Business.MaxFDTenure {
		return nil, ErrFDTenureOutOfRange
	}

	moneyLock := lock.NewMoneyLock(s.redisClient, userID, idgen.GenerateFDNo())
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

	rate := interest.RateForTenure(tenure)
	maturityAmount := interest.MaturityAmount(amount, rate, tenure).Round(2)

	now := time.Now()
	fd := &model.FixedDeposit{
		FDNumber:       idgen.GenerateFDNo(),
		UserID:         userID,
		AccountID:      account.ID,
		Amount:         amount,
		Tenure:         tenure,
		InterestRate:   rate,
		MaturityAmount: maturityAmount,
		StartDate:      now,
		MaturityDate:   now.AddDate(0, 0, tenure*30),
		Status:         model.FDStatusActive,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.accountRepo.Deduct(ctx, tx, userID, amount, account.Version); err != nil {
			return err
		}

		if err := s.fdRepo.Create(ctx, tx, fd); err != nil {
			return fmt.Errorf("创建存单失败: %w", err)
		}

		trans := &model.Transaction{
			TransactionNo: idgen.GenerateTransactionNo(),
			UserID:        userID,
			AccountID:     account.ID,
			Type:          model.TransactionTypeDebit,
			Amount:        amount,
			Description:   fmt.Sprintf("开立定期存款 %s", fd.FDNumber),
			Status:        model.TransactionStatusCompleted,
			BalanceAfter:  account.Balance.Sub(amount),
		}
		if err := s.transactionRepo.Create(ctx, tx, trans); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}

		payload := map[string]interface{}{
			"fd_number":       fd.FDNumber,
			"user_id":         userID,
			"amount":          amount,
			"tenure":          tenure,
			"interest_rate":   rate,
			"maturity_amount": maturityAmount,
			"maturity_date":   fd.MaturityDate.Format(time.RFC3339),
		}
		if err := s.outboxRepo.Append(ctx, tx, model.EventTypeFDCreated,
			s.cfg.Kafka.Topic.Notification, fd.FDNumber, payload); err != nil {
			return fmt.Errorf("写入存单事件失败: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("开立存单成功: userID=%d, fdNo=%s, amount=%s, rate=%s, maturity=%s",
		userID, fd.FDNumber, amount, rate, maturityAmount)

	return toFDResponse(fd), nil
}

// List 查询名下全部存单
func (s *FDService) List(ctx context.Context, userID int64) ([]*FDResponse, error) {
	fds, err := s.fdRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]*FDResponse, 0, len(fds))
	for _, fd := range fds {
		resp = append(resp, toFDResponse(fd))
	}
	return resp, nil
}

// Details 存单详情，含当前价值估算
func (s *FDService) Details(ctx context.Context, userID, fdID int64) (*FDDetailResponse, error) {
	fd, err := s.fdRepo.GetByIDForUser(ctx, fdID, userID)
	if err != nil {
		return nil, err
	}

	elapsed := elapsedDays(fd.StartDate, time.Now())
	totalDays := fd.TotalDays()

	detail := &FDDetailResponse{
		FDResponse:    *toFDResponse(fd),
		ElapsedDays:   elapsed,
		RemainingDays: interest.RemainingDays(elapsed, totalDays),
	}

	switch fd.Status {
	case model.FDStatusActive:
		detail.CurrentValue = interest.CurrentValue(fd.Amount, fd.MaturityAmount, elapsed, totalDays).Round(2)
	default:
		// 终态存单的价值就是实际兑付金额
		detail.CurrentValue = fd.ActualPayout.Decimal
		detail.RemainingDays = 0
	}

	return detail, nil
}

// Break 提前支取
//
// 【关键点】状态迁移（Settle 的 WHERE status = active）保证幂等：
// 并发重复支取只有一笔能成功，另一笔拿到状态不合法错误
func (s *FDService) Break(ctx context.Context, userID, fdID int64) (*FDDetailResponse, error) {
	moneyLock := lock.NewMoneyLock(s.redisClient, userID, idgen.GenerateTransactionNo())
	if err := moneyLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, ErrSystemBusy
	}
	defer moneyLock.Unlock(ctx)

	fd, err := s.fdRepo.GetByIDForUser(ctx, fdID, userID)
	if err != nil {
		return nil, err
	}
	if fd.Status != model.FDStatusActive {
		return nil, ErrFDNotActive
	}

	elapsed := elapsedDays(fd.StartDate, time.Now())
	totalDays := fd.TotalDays()
	penalty := decimal.NewFromFloat(s.cfg.Business.FDPenaltyPoints)
	payout := interest.BreakPayout(fd.Amount, fd.InterestRate, penalty, elapsed, totalDays).Round(2)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.fdRepo.Settle(ctx, tx, fd.ID, model.FDStatusActive, model.FDStatusBroken, payout); err != nil {
			return err
		}

		// 锁行读，拿到入账前余额
		account, err := s.accountRepo.GetByUserIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		if err := s.accountRepo.Increase(ctx, tx, userID, payout); err != nil {
			return fmt.Errorf("兑付入账失败: %w", err)
		}

		trans := &model.Transaction{
			TransactionNo: idgen.GenerateTransactionNo(),
			UserID:        userID,
			AccountID:     account.ID,
			Type:          model.TransactionTypeCredit,
			Amount:        payout,
			Description:   fmt.Sprintf("提前支取定期存款 %s", fd.FDNumber),
			Status:        model.TransactionStatusCompleted,
			BalanceAfter:  account.Balance.Add(payout),
		}
		if err := s.transactionRepo.Create(ctx, tx, trans); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}

		payload := map[string]interface{}{
			"fd_number":     fd.FDNumber,
			"user_id":       userID,
			"principal":     fd.Amount,
			"actual_payout": payout,
			"elapsed_days":  elapsed,
		}
		if err := s.outboxRepo.Append(ctx, tx, model.EventTypeFDBroken,
			s.cfg.Kafka.Topic.Notification, fd.FDNumber, payload); err != nil {
			return fmt.Errorf("写入支取事件失败: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("提前支取成功: userID=%d, fdNo=%s, principal=%s, payout=%s, elapsedDays=%d",
		userID, fd.FDNumber, fd.Amount, payout, elapsed)

	fd.Status = model.FDStatusBroken
	fd.ActualPayout = decimal.NewNullDecimal(payout)

	return &FDDetailResponse{
		FDResponse:    *toFDResponse(fd),
		ElapsedDays:   elapsed,
		RemainingDays: 0,
		CurrentValue:  payout,
	}, nil
}

func toFDResponse(fd *model.FixedDeposit) *FDResponse {
	return &FDResponse{
		ID:             fd.ID,
		FDNumber:       fd.FDNumber,
		Amount:         fd.Amount,
		Tenure:         fd.Tenure,
		InterestRate:   fd.InterestRate,
		MaturityAmount: fd.MaturityAmount,
		ActualPayout:   fd.ActualPayout,
		StartDate:      fd.StartDate,
		MaturityDate:   fd.MaturityDate,
		Status:         fd.Status,
	}
}

// elapsedDays 已存天数，按自然天向下取整
func elapsedDays(start, now time.Time) int {
	if now.Before(start) {
		return 0
	}
	return int(now.Sub(start).Hours() / 24)
}
