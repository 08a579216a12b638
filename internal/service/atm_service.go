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

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrCardAlreadyExists = errors.New("已有在途或有效的卡片")
	ErrCardTypeInvalid   = errors.New("卡片类型不合法")
	ErrPinFormat         = errors.New("密码必须是4位数字")
	ErrCardNotDelivered  = errors.New("卡片未送达，无法设置密码")
	ErrCardNotActive     = errors.New("卡片未激活")
	ErrPinMismatch       = errors.New("原密码错误")
)

// cardValidYears 卡片有效期（年）
const cardValidYears = 3

type ATMService struct {
	db      *gorm.DB
	cfg     *config.Config
	atmRepo *repository.ATMRepository
}

func NewATMService(db *gorm.DB, cfg *config.Config) *ATMService {
	return &ATMService{
		db:      db,
		cfg:     cfg,
		atmRepo: repository.NewATMRepository(db),
	}
}

// CardResponse 列表视图，卡号掩码
type CardResponse struct {
	ID         int64     `json:"id"`
	CardNumber string    `json:"card_number"` // 掩码后
	CardType   string    `json:"card_type"`
	ExpiryDate time.Time `json:"expiry_date"`
	Status     string    `json:"status"`
	PinSet     bool      `json:"pin_set"`
	IsBlocked  bool      `json:"is_blocked"`
	CreatedAt  time.Time `json:"created_at"`
}

// CardDetailResponse 详情视图，返回完整卡号和 CVV（仅限本人查询）
type CardDetailResponse struct {
	CardResponse
	FullCardNumber  string `json:"full_card_number"`
	CVV             string `json:"cvv"`
	DeliveryAddress string `json:"delivery_address"`
}

// RequestCard 申请卡片
//
// 【不变量】一人同时只允许一张在途或有效卡片，已注销的不占名额
func (s *ATMService) RequestCard(ctx context.Context, userID int64, cardType, deliveryAddress string) (*CardResponse, error) {
	if cardType != model.CardTypeDebit && cardType != model.CardTypeCredit {
		return nil, ErrCardTypeInvalid
	}

	exists, err := s.atmRepo.HasPendingOrActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("查询卡片失败: %w", err)
	}
	if exists {
		return nil, ErrCardAlreadyExists
	}

	card := &model.ATMCard{
		UserID:          userID,
		CardNumber:      idgen.GenerateCardNo(),
		CardType:        cardType,
		CVV:             idgen.GenerateCVV(),
		ExpiryDate:      time.Now().AddDate(cardValidYears, 0, 0),
		DeliveryAddress: deliveryAddress,
		Status:          model.CardStatusRequested,
	}

	if err := s.atmRepo.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("创建卡片失败: %w", err)
	}

	log.Printf("卡片申请成功: userID=%d, card=%s, type=%s", userID, card.MaskedNumber(), cardType)
	return toCardResponse(card), nil
}

// List 名下全部卡片，卡号掩码
func (s *ATMService) List(ctx context.Context, userID int64) ([]*CardResponse, error) {
	cards, err := s.atmRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]*CardResponse, 0, len(cards))
	for _, card := range cards {
		resp = append(resp, toCardResponse(card))
	}
	return resp, nil
}

// Details 卡片详情，含完整卡号
func (s *ATMService) Details(ctx context.Context, userID, cardID int64) (*CardDetailResponse, error) {
	card, err := s.atmRepo.GetByIDForUser(ctx, cardID, userID)
	if err != nil {
		return nil, err
	}

	return &CardDetailResponse{
		CardResponse:    *toCardResponse(card),
		FullCardNumber:  card.CardNumber,
		CVV:             card.CVV,
		DeliveryAddress: card.DeliveryAddress,
	}, nil
}

// SetPin 设置密码并激活卡片（delivered -> active）
func (s *ATMService) SetPin(ctx context.Context, userID, cardID int64, pin string) error {
	if !isValidPin(pin) {
		return ErrPinFormat
	}

	card, err := s.atmRepo.GetByIDForUser(ctx, cardID, userID)
	if err != nil {
		return err
	}

	if card.Status != model.CardStatusDelivered {
		return ErrCardNotDelivered
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), bcryptCost)
	if err != nil {
		return fmt.Errorf("密码加密失败: %w", err)
	}

	card.PinHash = string(hashed)
	card.PinSet = true
	card.Status = model.CardStatusActive
	if err := s.atmRepo.Update(ctx, card); err != nil {
		return fmt.Errorf("更新卡片失败: %w", err)
	}

	log.Printf("卡片激活成功: userID=%d, card=%s", userID, card.MaskedNumber())
	return nil
}

// ChangePin 修改密码，需验证原密码
func (s *ATMService) ChangePin(ctx context.Context, userID, cardID int64, oldPin, newPin string) error {
	if !isValidPin(newPin) {
		return ErrPinFormat
	}

	card, err := s.atmRepo.GetByIDForUser(ctx, cardID, userID)
	if err != nil {
		return err
	}

	if card.Status != model.CardStatusActive || !card.PinSet {
		return ErrCardNotActive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(card.PinHash), []byte(oldPin)); err != nil {
		return ErrPinMismatch
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPin), bcryptCost)
	if err != nil {
		return fmt.Errorf("密码加密失败: %w", err)
	}

	card.PinHash = string(hashed)
	return s.atmRepo.Update(ctx, card)
}

// ToggleBlock 临时挂失/解挂（不改变卡片生命周期状态）
func (s *ATMService) ToggleBlock(ctx context.Context, userID, cardID int64) (*CardResponse, error) {
	card, err := s.atmRepo.GetByIDForUser(ctx, cardID, userID)
	if err != nil {
		return nil, err
	}

	if card.Status != model.CardStatusActive {
		return nil, ErrCardNotActive
	}

	card.IsBlocked = !card.IsBlocked
	if err := s.atmRepo.Update(ctx, card); err != nil {
		return nil, fmt.Errorf("更新卡片失败: %w", err)
	}

	log.Printf("卡片挂失状态变更: userID=%d, card=%s, blocked=%v", userID, card.MaskedNumber(), card.IsBlocked)
	return toCardResponse(card), nil
}

func toCardResponse(card *model.ATMCard) *CardResponse {
	return &CardResponse{
		ID:         card.ID,
		CardNumber: card.MaskedNumber(),
		CardType:   card.CardType,
		ExpiryDate: card.ExpiryDate,
		Status:     card.Status,
		PinSet:     card.PinSet,
		IsBlocked:  card.IsBlocked,
		CreatedAt:  card.CreatedAt,
	}
}

func isValidPin(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
