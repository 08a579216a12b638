package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cbibank/internal/config"
	"cbibank/internal/model"
	"cbibank/internal/repository"
	"cbibank/pkg/idgen"

	"gorm.io/gorm"
)

var (
	ErrTicketStatusInvalid = errors.New("工单状态不合法")
	ErrTicketForbidden     = errors.New("无权查看该工单")
)

type ContactService struct {
	db          *gorm.DB
	cfg         *config.Config
	contactRepo *repository.ContactRepository
	outboxRepo  *repository.OutboxRepository
}

func NewContactService(db *gorm.DB, cfg *config.Config) *ContactService {
	return &ContactService{
		db:          db,
		cfg:         cfg,
		contactRepo: repository.NewContactRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
	}
}

type SubmitTicketRequest struct {
	Name     string
	Email    string
	Subject  string
	Message  string
	Category string
	Priority string
	UserID   *int64 // 登录用户提交时由中间件填入
}

// Submit 提交工单（公开接口，登录与否都可用）
func (s *ContactService) Submit(ctx context.Context, req *SubmitTicketRequest) (*model.ContactTicket, error) {
	if req.Category == "" {
		req.Category = "general"
	}
	if req.Priority == "" {
		req.Priority = model.TicketPriorityMedium
	}

	ticket := &model.ContactTicket{
		TicketNumber: idgen.GenerateTicketNo(),
		Name:         req.Name,
		Email:        req.Email,
		Subject:      req.Subject,
		Message:      req.Message,
		Category:     req.Category,
		Priority:     req.Priority,
		Status:       model.TicketStatusOpen,
		UserID:       req.UserID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.contactRepo.Create(ctx, tx, ticket); err != nil {
			return fmt.Errorf("创建工单失败: %w", err)
		}

		// 受理确认邮件走通知事件
		payload := map[string]interface{}{
			"ticket_number": ticket.TicketNumber,
			"name":          ticket.Name,
			"email":         ticket.Email,
			"subject":       ticket.Subject,
		}
		if err := s.outboxRepo.Append(ctx, tx, model.EventTypeTicketOpened,
			s.cfg.Kafka.Topic.Notification, ticket.TicketNumber, payload); err != nil {
			return fmt.Errorf("写入工单事件失败: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("工单提交成功: ticketNo=%s, email=%s", ticket.TicketNumber, ticket.Email)
	return ticket, nil
}

// MyTickets 查询本人提交的全部工单
func (s *ContactService) MyTickets(ctx context.Context, userID int64) ([]*model.ContactTicket, error) {
	return s.contactRepo.ListByUserID(ctx, userID)
}

// GetByNumber 按工单号查询
// 匿名工单任何登录用户都查不到归属，只允许查自己名下的；管理员不受限
func (s *ContactService) GetByNumber(ctx context.Context, ticketNumber string, userID int64, isAdmin bool) (*model.ContactTicket, error) {
	ticket, err := s.contactRepo.GetByTicketNumber(ctx, ticketNumber)
	if err != nil {
		return nil, err
	}

	if !isAdmin {
		if ticket.UserID == nil || *ticket.UserID != userID {
			return nil, ErrTicketForbidden
		}
	}

	return ticket, nil
}

type TicketListResponse struct {
	Tickets  []*model.ContactTicket `json:"tickets"`
	Total    int64                  `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}

// ListAll 管理端工单列表
func (s *ContactService) ListAll(ctx context.Context, status string, page, pageSize int) (*TicketListResponse, error) {
	if status != "" && !model.IsValidTicketStatus(status) {
		return nil, ErrTicketStatusInvalid
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	tickets, total, err := s.contactRepo.ListAll(ctx, status, page, pageSize)
	if err != nil {
		return nil, err
	}

	return &TicketListResponse{
		Tickets:  tickets,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Respond 管理员回复工单，回复后状态置为 resolved
func (s *ContactService) Respond(ctx context.Context, ticketID int64, responseMessage string) (*model.ContactTicket, error) {
	ticket, err := s.contactRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ticket.ResponseMessage = responseMessage
	ticket.ResponseDate = &now
	ticket.Status = model.TicketStatusResolved

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.contactRepo.Update(ctx, tx, ticket); err != nil {
			return fmt.Errorf("更新工单失败: %w", err)
		}

		payload := map[string]interface{}{
			"ticket_number": ticket.TicketNumber,
			"email":         ticket.Email,
			"subject":       ticket.Subject,
			"response":      responseMessage,
		}
		if err := s.outboxRepo.Append(ctx, tx, model.EventTypeTicketReply,
			s.cfg.Kafka.Topic.Notification, ticket.TicketNumber, payload); err != nil {
			return fmt.Errorf("写入回复事件失败: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("工单回复成功: ticketNo=%s", ticket.TicketNumber)
	return ticket, nil
}

// UpdateStatus 管理员调整工单状态
func (s *ContactService) UpdateStatus(ctx context.Context, ticketID int64, status string) (*model.ContactTicket, error) {
	if !model.IsValidTicketStatus(status) {
		return nil, ErrTicketStatusInvalid
	}

	ticket, err := s.contactRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	ticket.Status = status
	if err := s.contactRepo.Update(ctx, nil, ticket); err != nil {
		return nil, fmt.Errorf("更新工单失败: %w", err)
	}

	return ticket, nil
}
