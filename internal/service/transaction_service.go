package service

import (
	"context"
	"time"

	"cbibank/internal/config"
	"cbibank/internal/model"
	"cbibank/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionService struct {
	db              *gorm.DB
	cfg             *config.Config
	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
}

func NewTransactionService(db *gorm.DB, cfg *config.Config) *TransactionService {
	return &TransactionService{
		db:              db,
		cfg:             cfg,
		accountRepo:     repository.NewAccountRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
	}
}

type TransactionListResponse struct {
	Transactions []*model.Transaction `json:"transactions"`
	Total        int64                `json:"total"`
	Page         int                  `json:"page"`
	PageSize     int                  `json:"page_size"`
	TotalPages   int64                `json:"total_pages"`
}

// List 分页查询流水，最新在前
func (s *TransactionService) List(ctx context.Context, userID int64, filter repository.TransactionFilter, page, pageSize int) (*TransactionListResponse, error) {
	account, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	transactions, total, err := s.transactionRepo.ListByAccountID(ctx, account.ID, filter, page, pageSize)
	if err != nil {
		return nil, err
	}

	totalPages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		totalPages++
	}

	return &TransactionListResponse{
		Transactions: transactions,
		Total:        total,
		Page:         page,
		PageSize:     pageSize,
		TotalPages:   totalPages,
	}, nil
}

// Details 单笔流水详情（仅限本人）
func (s *TransactionService) Details(ctx context.Context, userID, transactionID int64) (*model.Transaction, error) {
	return s.transactionRepo.GetByIDForUser(ctx, transactionID, userID)
}

type MonthlyStats struct {
	Month       string          `json:"month"` // 2026-01 格式
	TotalCredit decimal.Decimal `json:"total_credit"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	Count       int             `json:"count"`
}

type TransactionStatsResponse struct {
	PeriodDays  int             `json:"period_days"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	CreditCount int             `json:"credit_count"`
	DebitCount  int             `json:"debit_count"`
	NetChange   decimal.Decimal `json:"net_change"` // 入账减出账
	Monthly     []*MonthlyStats `json:"monthly"`
}

// Stats 统计最近 N 天的收支汇总与按月明细
//
// 流水表只追加不修改，统计在内存里单遍聚合即可，不依赖数据库方言函数
func (s *TransactionService) Stats(ctx context.Context, userID int64, periodDays int) (*TransactionStatsResponse, error) {
	account, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if periodDays <= 0 || periodDays > 365 {
		periodDays = 180
	}
	since := time.Now().AddDate(0, 0, -periodDays)

	transactions, err := s.transactionRepo.ListSince(ctx, account.ID, since)
	if err != nil {
		return nil, err
	}

	stats := &TransactionStatsResponse{
		PeriodDays:  periodDays,
		TotalCredit: decimal.Zero,
		TotalDebit:  decimal.Zero,
	}

	monthly := make(map[string]*MonthlyStats)
	var monthOrder []string

	for _, trans := range transactions {
		month := trans.CreatedAt.Format("2006-01")
		m, ok := monthly[month]
		if !ok {
			m = &MonthlyStats{
				Month:       month,
				TotalCredit: decimal.Zero,
				TotalDebit:  decimal.Zero,
			}
			monthly[month] = m
			monthOrder = append(monthOrder, month)
		}

		m.Count++
		switch trans.Type {
		case model.TransactionTypeCredit:
			stats.TotalCredit = stats.TotalCredit.Add(trans.Amount)
			stats.CreditCount++
			m.TotalCredit = m.TotalCredit.Add(trans.Amount)
		case model.TransactionTypeDebit:
			stats.TotalDebit = stats.TotalDebit.Add(trans.Amount)
			stats.DebitCount++
			m.TotalDebit = m.TotalDebit.Add(trans.Amount)
		}
	}

	stats.NetChange = stats.TotalCredit.Sub(stats.TotalDebit)

	// ListSince 按时间升序返回，monthOrder 天然有序
	stats.Monthly = make([]*MonthlyStats, 0, len(monthOrder))
	for _, month := range monthOrder {
		stats.Monthly = append(stats.Monthly, monthly[month])
	}

	return stats, nil
}

type StatementResponse struct {
	AccountNumber string               `json:"account_number"`
	GeneratedAt   time.Time            `json:"generated_at"`
	StartDate     *time.Time           `json:"start_date,omitempty"`
	EndDate       *time.Time           `json:"end_date,omitempty"`
	Balance       decimal.Decimal      `json:"balance"`
	Transactions  []*model.Transaction `json:"transactions"`
}

// Statement 对账单：不分页全量导出指定区间的流水
func (s *TransactionService) Statement(ctx context.Context, userID int64, filter repository.TransactionFilter) (*StatementResponse, error) {
	account, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	transactions, err := s.transactionRepo.ListAllByAccountID(ctx, account.ID, filter)
	if err != nil {
		return nil, err
	}

	resp := &StatementResponse{
		AccountNumber: account.AccountNumber,
		GeneratedAt:   time.Now(),
		Balance:       account.Balance,
		Transactions:  transactions,
	}
	if !filter.StartDate.IsZero() {
		resp.StartDate = &filter.StartDate
	}
	if !filter.EndDate.IsZero() {
		resp.EndDate = &filter.EndDate
	}
	return resp, nil
}
