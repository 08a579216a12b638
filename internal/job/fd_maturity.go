package job

import (
	"context"
	"log"
	"time"

	"cbibank/internal/config"
	"cbibank/internal/model"
	"cbibank/internal/repository"
	"cbibank/pkg/idgen"

	"gorm.io/gorm"
)

// FDMaturityJob 定期存款到期扫描任务
//
// 到期兑付不依赖用户操作：扫描已过到期日仍为 active 的存单，
// 按开立时冻结的到期金额入账
type FDMaturityJob struct {
	db              *gorm.DB
	fdRepo          *repository.FDRepository
	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
	outboxRepo      *repository.OutboxRepository
	cfg             *config.Config
	stopCh          chan struct{}
	interval        time.Duration
	batchSize       int
}

func NewFDMaturityJob(db *gorm.DB, cfg *config.Config) *FDMaturityJob {
	interval := time.Duration(cfg.Business.MaturitySweepSecs) * time.Second
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &FDMaturityJob{
		db:              db,
		fdRepo:          repository.NewFDRepository(db),
		accountRepo:     repository.NewAccountRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		outboxRepo:      repository.NewOutboxRepository(db),
		cfg:             cfg,
		stopCh:          make(chan struct{}),
		interval:        interval,
		batchSize:       100,
	}
}

func (j *FDMaturityJob) Start(ctx context.Context) {
	log.Println("[FDMaturityJob] 到期兑付任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[FDMaturityJob] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[FDMaturityJob] 任务停止")
			return
		case <-ticker.C:
			j.settleMaturedFDs(ctx)
		}
	}
}

func (j *FDMaturityJob) Stop() {
	close(j.stopCh)
}

func (j *FDMaturityJob) settleMaturedFDs(ctx context.Context) {
	fds, err := j.fdRepo.GetMaturedActive(ctx, time.Now(), j.batchSize)
	if err != nil {
		log.Printf("[FDMaturityJob] 查询到期存单失败: %v", err)
		return
	}

	if len(fds) == 0 {
		return
	}

	log.Printf("[FDMaturityJob] 发现 %d 个到期存单", len(fds))

	settledCount := 0
	for _, fd := range fds {
		if err := j.settleOne(ctx, fd); err != nil {
			log.Printf("[FDMaturityJob] 兑付失败: fdNo=%s, err=%v", fd.FDNumber, err)
			continue
		}
		settledCount++
		log.Printf("[FDMaturityJob] 存单已到期兑付: fdNo=%s, userID=%d, payout=%s",
			fd.FDNumber, fd.UserID, fd.MaturityAmount)
	}

	log.Printf("[FDMaturityJob] 本次兑付 %d 个到期存单", settledCount)
}

// settleOne 兑付单个存单
//
// 【关键点】Settle 的 WHERE status = active 保证幂等：
// 扫描窗口与用户提前支取并发时，只有一方能迁移状态成功
func (j *FDMaturityJob) settleOne(ctx context.Context, fd *model.FixedDeposit) error {
	return j.db.Transaction(func(tx *gorm.DB) error {
		if err := j.fdRepo.Settle(ctx, tx, fd.ID, model.FDStatusActive, model.FDStatusMatured, fd.MaturityAmount); err != nil {
			return err
		}

		account, err := j.accountRepo.GetByUserIDForUpdate(ctx, tx, fd.UserID)
		if err != nil {
			return err
		}

		if err := j.accountRepo.Increase(ctx, tx, fd.UserID, fd.MaturityAmount); err != nil {
			return err
		}

		trans := &model.Transaction{
			TransactionNo: idgen.GenerateTransactionNo(),
			UserID:        fd.UserID,
			AccountID:     account.ID,
			Type:          model.TransactionTypeCredit,
			Amount:        fd.MaturityAmount,
			Description:   "定期存款到期兑付 " + fd.FDNumber,
			Status:        model.TransactionStatusCompleted,
			BalanceAfter:  account.Balance.Add(fd.MaturityAmount),
		}
		if err := j.transactionRepo.Create(ctx, tx, trans); err != nil {
			return err
		}

		payload := map[string]interface{}{
			"fd_number":       fd.FDNumber,
			"user_id":         fd.UserID,
			"principal":       fd.Amount,
			"maturity_amount": fd.MaturityAmount,
			"maturity_date":   fd.MaturityDate.Format(time.RFC3339),
		}
		return j.outboxRepo.Append(ctx, tx, model.EventTypeFDMatured,
			j.cfg.Kafka.Topic.Notification, fd.FDNumber, payload)
	})
}
