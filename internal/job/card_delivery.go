package job

import (
	"context"
	"log"
	"time"

	"cbibank/internal/config"
	"cbibank/internal/repository"

	"gorm.io/gorm"
)

// cardDeliveryDays 模拟制卡寄送周期（天）
const cardDeliveryDays = 7

// CardDeliveryJob 卡片送达扫描任务
// 申请满制卡周期的卡片自动置为 delivered，用户随后设置密码激活
type CardDeliveryJob struct {
	db        *gorm.DB
	atmRepo   *repository.ATMRepository
	cfg       *config.Config
	stopCh    chan struct{}
	interval  time.Duration
	batchSize int
}

func NewCardDeliveryJob(db *gorm.DB, cfg *config.Config) *CardDeliveryJob {
	return &CardDeliveryJob{
		db:        db,
		atmRepo:   repository.NewATMRepository(db),
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		interval:  time.Minute,
		batchSize: 100,
	}
}

func (j *CardDeliveryJob) Start(ctx context.Context) {
	log.Println("[CardDeliveryJob] 卡片送达任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[CardDeliveryJob] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[CardDeliveryJob] 任务停止")
			return
		case <-ticker.C:
			j.deliverCards(ctx)
		}
	}
}

func (j *CardDeliveryJob) Stop() {
	close(j.stopCh)
}

func (j *CardDeliveryJob) deliverCards(ctx context.Context) {
	before := time.Now().AddDate(0, 0, -cardDeliveryDays)
	cards, err := j.atmRepo.GetRequestedBefore(ctx, before, j.batchSize)
	if err != nil {
		log.Printf("[CardDeliveryJob] 查询待送达卡片失败: %v", err)
		return
	}

	for _, card := range cards {
		if err := j.atmRepo.MarkDelivered(ctx, card.ID); err != nil {
			log.Printf("[CardDeliveryJob] 标记送达失败: cardID=%d, err=%v", card.ID, err)
			continue
		}
		log.Printf("[CardDeliveryJob] 卡片已送达: userID=%d, card=%s", card.UserID, card.MaskedNumber())
	}
}
